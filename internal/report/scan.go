package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/srg/blepoll/internal/device"
)

// WriteScanTable prints the result of a one-shot scan as an aligned table.
func WriteScanTable(w io.Writer, devices []device.Info) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No devices discovered")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tRSSI\tSERVICES")
	fmt.Fprintln(tw, "----\t-------\t----\t--------")

	for _, dev := range devices {
		name := truncate(dev.DisplayName(), 20)
		services := truncate(strings.Join(dev.AdvertisedServices, ","), 30)

		fmt.Fprintf(tw, "%s\t%s\t%d dBm\t%s\n", name, dev.Address, dev.RSSI, services)
	}

	return tw.Flush()
}

// truncate shortens s to at most limit runes, ending with "..." when cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

// WriteScanJSON prints the result of a one-shot scan as an indented JSON array.
func WriteScanJSON(w io.Writer, devices []device.Info) error {
	if devices == nil {
		devices = []device.Info{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(devices)
}
