package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/report"
	"github.com/srg/blepoll/scanner"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for BLE devices",
		Long: `Run a single discovery window (--window, default 5s) and list the Bluetooth Low Energy
devices in the vicinity with their names, addresses, RSSI values and advertised services.`,
		Example: `  blepoll scan
  blepoll scan --window 10s --services 180f
  blepoll scan --format json`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	cmd.Flags().StringSliceP("services", "s", nil, "Only show devices advertising one of these service UUIDs")
	cmd.Flags().StringSlice("allow", nil, "Only show devices with these addresses")
	cmd.Flags().StringSlice("block", nil, "Hide devices with these addresses")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	services, _ := cmd.Flags().GetStringSlice("services")
	allow, _ := cmd.Flags().GetStringSlice("allow")
	block, _ := cmd.Flags().GetStringSlice("block")

	// Validate and normalize service UUIDs if provided
	var serviceUUIDs []string
	if len(services) > 0 {
		serviceUUIDs, err = device.ValidateUUID(services...)
		if err != nil {
			return fmt.Errorf("invalid service UUID: %w", err)
		}
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	backend := newBackend(logger)
	defer closeBackend(backend, logger)

	s, err := scanner.NewScanner(backend, logger)
	if err != nil {
		return fmt.Errorf("failed to create BLE scanner: %w", err)
	}

	var progressCallback scanner.ProgressCallback
	if cfg.OutputFormat == report.FormatText && report.IsTerminal(cmd.ErrOrStderr()) {
		progress := NewCountdownProgressPrinter(cmd.ErrOrStderr(), "Scanning for BLE devices", "Scanning", cfg.ScanWindow, "Processing results")
		progress.Start()
		defer progress.Stop()
		progressCallback = progress.Callback()
	}

	devices, err := s.Scan(cmd.Context(), &scanner.ScanOptions{
		Duration:        cfg.ScanWindow,
		DuplicateFilter: true,
		ServiceUUIDs:    serviceUUIDs,
		AllowList:       allow,
		BlockList:       block,
	}, progressCallback)
	if err != nil {
		logger.WithError(err).Error("scan failed")
		return err
	}

	reportMissing(logger, allow, devices)

	if cfg.OutputFormat == report.FormatJSON {
		return report.WriteScanJSON(cmd.OutOrStdout(), devices)
	}
	return report.WriteScanTable(cmd.OutOrStdout(), devices)
}

// reportMissing logs every allow-listed address that did not advertise during the window.
func reportMissing(logger *logrus.Logger, allow []string, devices []device.Info) {
	seen := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		seen[d.Address] = struct{}{}
	}
	for _, addr := range allow {
		addr = device.NormalizeAddress(addr)
		if _, ok := seen[addr]; ok {
			continue
		}
		err := &device.NotFoundError{Resource: "device", UUIDs: []string{addr}}
		logger.WithError(err).Debug("Allowed device not seen")
	}
}
