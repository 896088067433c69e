package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/blepoll/internal/bledb"
	"github.com/srg/blepoll/internal/report"
)

type uuidEntry struct {
	Kind bledb.Kind `json:"kind,omitempty"`
	bledb.Entry
}

func newUUIDsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuids [UUID...]",
		Short: "List or resolve known service, characteristic and descriptor UUIDs",
		Long: `Without arguments, list the UUIDs blepoll prints names for. With arguments, resolve
each UUID (16-bit or 128-bit, with or without dashes) to its known name.`,
		Example: `  blepoll uuids
  blepoll uuids --kind service
  blepoll uuids 2a19 81ea96fb-1117-4ea4-9df0-d30cd73e0e76`,
		RunE: runUUIDs,
	}
	cmd.Flags().String("kind", "", "Only list one kind (service, characteristic, descriptor)")
	return cmd
}

func runUUIDs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	kindFlag, _ := cmd.Flags().GetString("kind")
	kinds := bledb.Kinds
	if kindFlag != "" {
		kinds = nil
		for _, k := range bledb.Kinds {
			if string(k) == kindFlag {
				kinds = []bledb.Kind{k}
			}
		}
		if kinds == nil {
			return fmt.Errorf("invalid kind '%s': must be one of %v", kindFlag, bledb.Kinds)
		}
	}

	var entries []uuidEntry
	if len(args) == 0 {
		entries = listEntries(kinds)
	} else {
		entries, err = resolveEntries(kinds, args)
		if err != nil {
			return err
		}
	}

	cmd.SilenceUsage = true
	if cfg.OutputFormat == report.FormatJSON {
		return writeEntriesJSON(cmd.OutOrStdout(), entries)
	}
	return writeEntriesTable(cmd.OutOrStdout(), entries)
}

func listEntries(kinds []bledb.Kind) []uuidEntry {
	db := bledb.Default()
	entries := make([]uuidEntry, 0)
	for _, kind := range kinds {
		for _, e := range db.Entries(kind) {
			entries = append(entries, uuidEntry{Kind: kind, Entry: e})
		}
	}
	return entries
}

// resolveEntries looks every argument up in kinds. Unknown UUIDs are listed with an empty name.
func resolveEntries(kinds []bledb.Kind, uuids []string) ([]uuidEntry, error) {
	db := bledb.Default()
	entries := make([]uuidEntry, 0, len(uuids))
	for _, raw := range uuids {
		uuid := bledb.NormalizeUUID(raw)
		if uuid == "" {
			return nil, fmt.Errorf("invalid UUID format: %s", raw)
		}

		found := false
		for _, kind := range kinds {
			if name := db.Lookup(kind, uuid); name != "" {
				entries = append(entries, uuidEntry{Kind: kind, Entry: bledb.Entry{UUID: uuid, Name: name}})
				found = true
			}
		}
		if !found {
			entries = append(entries, uuidEntry{Entry: bledb.Entry{UUID: uuid}})
		}
	}
	return entries, nil
}

func writeEntriesTable(w io.Writer, entries []uuidEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tUUID\tNAME")
	for _, e := range entries {
		kind, name := string(e.Kind), e.Name
		if kind == "" {
			kind, name = "-", "(unknown)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", kind, e.UUID, name)
	}
	return tw.Flush()
}

func writeEntriesJSON(w io.Writer, entries []uuidEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
