package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/report"
	"github.com/srg/blepoll/pkg/config"
	"github.com/srg/blepoll/poller"
	"github.com/srg/blepoll/scanner"
)

func newWatchNameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch-name [NAME]",
		Short: "Scan repeatedly and dump the GATT profile of devices with a given name",
		Long: `Scan repeatedly for devices advertising exactly NAME (case-sensitive, default ESP32).

Every matching device is connected to, its services and characteristics are printed and
the connection is closed again before the next device. Polls follow each other without
a pause unless --interval is given. Any scan, connection or discovery failure stops
the command.`,
		Example: `  blepoll watch-name
  blepoll watch-name ESP32 --window 10s
  blepoll watch-name Thermo --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, poller.ModeInspect)
		},
	}
	cmd.Flags().Duration("interval", 0, "Pause between polls (default 0s)")
	return cmd
}

func newWatchAddrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch-addr [ADDRESS]",
		Short: "Scan repeatedly and print the details of the device with a given address",
		Long: fmt.Sprintf(`Scan repeatedly for the device with exactly ADDRESS (default 7C:DF:A1:E8:7B:CE)
and print the details of its advertisement. Polls are separated by --interval (default 1s).

%s`, deviceAddressNote),
		Example: fmt.Sprintf(`  blepoll watch-addr
  blepoll watch-addr %s --interval 5s`, exampleDeviceAddress),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, poller.ModeDetails)
		},
	}
	cmd.Flags().Duration("interval", 0, "Pause between polls (default 1s)")
	return cmd
}

// watchSettings resolves the target, filter and interval of a watcher.
func watchSettings(cmd *cobra.Command, args []string, cfg *config.Config, mode poller.Mode) (poller.Filter, time.Duration, error) {
	var (
		filter   poller.Filter
		interval time.Duration
		err      error
	)

	switch mode {
	case poller.ModeInspect:
		target := cfg.TargetName
		if len(args) > 0 {
			target = args[0]
		}
		interval = cfg.NameInterval
		filter, err = poller.ByName(target)
	default:
		target := cfg.TargetAddress
		if len(args) > 0 {
			target = args[0]
		}
		interval = cfg.AddressInterval
		filter, err = poller.ByAddress(device.NormalizeAddress(target))
	}
	if err != nil {
		return poller.Filter{}, 0, err
	}

	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
		if interval < 0 {
			return poller.Filter{}, 0, fmt.Errorf("interval must not be negative, got %s", interval)
		}
	}
	return filter, interval, nil
}

func runWatch(cmd *cobra.Command, args []string, mode poller.Mode) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	filter, interval, err := watchSettings(cmd, args, cfg, mode)
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter, err := report.New(cfg.OutputFormat, out, report.ShouldColor(out, cfg.NoColor))
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

	p, err := poller.New(s, backend, reporter, poller.Options{
		Filter:         filter,
		Mode:           mode,
		ScanWindow:     cfg.ScanWindow,
		Interval:       interval,
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return err
	}

	return p.Run(cmd.Context())
}
