// Package poller implements the discovery loop: scan, select the devices matching a name or an
// address, report them and, depending on the mode, dump their GATT profile or their details.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/inspector"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/report"
	"github.com/srg/blepoll/scanner"
)

// Mode selects what happens with a matching device.
type Mode int

const (
	// ModeInspect connects to every match and reports its services and characteristics.
	ModeInspect Mode = iota
	// ModeDetails reports the advertisement details of every match without connecting.
	ModeDetails
)

func (m Mode) String() string {
	switch m {
	case ModeInspect:
		return "inspect"
	case ModeDetails:
		return "details"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DeviceScanner runs one discovery window. *scanner.Scanner implements it.
type DeviceScanner interface {
	Scan(ctx context.Context, opts *scanner.ScanOptions, progressCallback scanner.ProgressCallback) ([]device.Info, error)
}

// Options configures a Poller.
type Options struct {
	Filter Filter
	Mode   Mode

	// ScanWindow is the duration of every discovery window.
	ScanWindow time.Duration
	// Interval is waited after every poll; zero polls back to back.
	Interval time.Duration
	// ConnectTimeout bounds dialing a match in ModeInspect.
	ConnectTimeout time.Duration
}

// Poller repeatedly scans and reports matching devices.
type Poller struct {
	scanner  DeviceScanner
	dialer   device.Dialer
	reporter report.Reporter
	opts     Options
	logger   *logrus.Logger
	ids      *pollIDs
	now      func() time.Time
}

// New creates a poller. dialer may be nil unless opts.Mode is ModeInspect.
func New(s DeviceScanner, dialer device.Dialer, reporter report.Reporter, opts Options, logger *logrus.Logger) (*Poller, error) {
	if s == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	if opts.Filter.IsZero() {
		return nil, fmt.Errorf("filter is required")
	}
	if opts.Mode == ModeInspect && dialer == nil {
		return nil, fmt.Errorf("dialer is required in %s mode", opts.Mode)
	}
	if opts.ScanWindow <= 0 {
		return nil, fmt.Errorf("scan window must be positive, got %s", opts.ScanWindow)
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %s", opts.Interval)
	}
	if logger == nil {
		logger = logrus.New()
	}

	now := time.Now
	return &Poller{
		scanner:  s,
		dialer:   dialer,
		reporter: reporter,
		opts:     opts,
		logger:   logger,
		ids:      newPollIDs(now()),
		now:      now,
	}, nil
}

// Run polls until ctx is cancelled, which is the only way it ends without an error.
// A cancelled run returns ctx.Err(). Scan, connect and discovery failures are not retried.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"filter":   p.opts.Filter.String(),
		"mode":     p.opts.Mode.String(),
		"window":   p.opts.ScanWindow,
		"interval": p.opts.Interval,
	}).Info("Starting discovery poller")

	for {
		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := p.wait(ctx); err != nil {
			return err
		}
	}
}

func (p *Poller) wait(ctx context.Context) error {
	if p.opts.Interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.opts.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PollOnce performs a single poll and returns the matching devices in scan order.
func (p *Poller) PollOnce(ctx context.Context) ([]device.Info, error) {
	pollID := p.ids.next(p.now())
	log := p.logger.WithField("poll_id", pollID)

	if err := p.reporter.PollStarted(pollID); err != nil {
		return nil, fmt.Errorf("failed to report poll start: %w", err)
	}

	devices, err := p.scanner.Scan(ctx, &scanner.ScanOptions{
		Duration:        p.opts.ScanWindow,
		DuplicateFilter: true,
	}, nil)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	matches := p.opts.Filter.Match(devices)
	log.WithFields(logrus.Fields{
		"device_count": len(devices),
		"match_count":  len(matches),
	}).Debug("Scan evaluated")
	if len(matches) == 0 {
		err := &device.NotFoundError{Resource: "device", UUIDs: []string{p.opts.Filter.Target()}}
		log.WithError(err).Debug("No device matched")
	}

	for _, d := range matches {
		if err := p.reporter.DeviceFound(pollID, d); err != nil {
			return nil, fmt.Errorf("failed to report device %s: %w", d.Address, err)
		}

		switch p.opts.Mode {
		case ModeInspect:
			if err := p.inspect(ctx, pollID, d); err != nil {
				return nil, err
			}
		case ModeDetails:
			if err := p.reporter.DeviceDetails(pollID, d); err != nil {
				return nil, fmt.Errorf("failed to report details of %s: %w", d.Address, err)
			}
		}
	}

	if err := p.reporter.PollFinished(pollID, len(matches)); err != nil {
		return nil, fmt.Errorf("failed to report poll end: %w", err)
	}
	return matches, nil
}

func (p *Poller) inspect(ctx context.Context, pollID string, d device.Info) error {
	opts := &inspector.InspectOptions{ConnectTimeout: p.opts.ConnectTimeout}
	_, err := inspector.InspectDevice(ctx, p.dialer, d.Address, opts, p.logger, nil,
		func(services []device.Service) (struct{}, error) {
			return struct{}{}, p.reporter.Services(pollID, d.Address, services)
		})
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"poll_id": pollID,
			"address": d.Address,
		}).Error("Device inspection failed")
	}
	return err
}
