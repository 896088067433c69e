package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree. Every call returns fresh commands and flags.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blepoll",
		Short: "Poll for a Bluetooth Low Energy device by name or address",
		Long: `blepoll keeps scanning for Bluetooth Low Energy (BLE) devices and reports the ones
matching an exact name or an exact hardware address:

- watch-name: connects to every device advertising the name and dumps its GATT
  services and characteristics
- watch-addr: prints the advertisement details of the device with the address
- scan: runs a single discovery window and lists everything in range
- uuids: lists the service and characteristic names blepoll knows about

The watchers run until interrupted with Ctrl+C.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
		// Silence Cobra's "Error:" prefix - main() prints clean errors
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("verbose", false, "Enable debug logging (same as --log-level debug)")
	flags.StringP("format", "f", "", "Output format (text, json)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Duration("window", 0, "Duration of every discovery window (default 5s)")
	flags.Duration("connect-timeout", 0, "Connection timeout when inspecting a device (default 30s)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newWatchNameCmd())
	rootCmd.AddCommand(newWatchAddrCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newUUIDsCmd())

	return rootCmd
}

func main() {
	ctx, stop := signalContext(context.Background())
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
