// Package scanner runs a single BLE discovery window and collects the devices seen in it.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/groutine"
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	DuplicateFilter bool
	ServiceUUIDs    []string
	AllowList       []string
	BlockList       []string
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:        5 * time.Second,
		DuplicateFilter: true,
	}
}

// stopGracePeriod bounds how long Scan waits for the backend after the window closed.
const stopGracePeriod = 2 * time.Second

// Scanner handles BLE device discovery
type Scanner struct {
	backend device.Scanner
	logger  *logrus.Logger
}

// entry is a device plus the order in which it was first seen. mu guards info, which
// advertisements keep updating while the window is open.
type entry struct {
	mu   sync.Mutex
	seq  uint64
	info *device.Info
}

// update merges adv unless the window has already been closed.
func (e *entry) update(adv device.Advertisement, closed *atomic.Bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if closed.Load() {
		return
	}
	e.info.Update(adv)
}

func (e *entry) clone() device.Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info.Clone()
}

// NewScanner creates a new BLE scanner
func NewScanner(backend device.Scanner, logger *logrus.Logger) (*Scanner, error) {
	if backend == nil {
		return nil, fmt.Errorf("scanner backend is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Scanner{
		backend: backend,
		logger:  logger,
	}, nil
}

// Scan performs one discovery window and returns the devices in first-seen order,
// one entry per address. A zero Duration scans until ctx is done. Window expiry and
// cancellation end the scan normally and return what was collected so far.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) ([]device.Info, error) {
	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	filter := newFilter(opts)
	devices := hashmap.New[string, *entry]()
	var seq atomic.Uint64

	// closed is set before the snapshot; later deliveries are dropped.
	var closed atomic.Bool

	handler := func(adv device.Advertisement) {
		if closed.Load() {
			return
		}
		address := device.NormalizeAddress(adv.Addr())
		if address == "" {
			return
		}

		e, existing := devices.Get(address)
		if !existing {
			if !filter.include(address, adv) {
				return
			}
			info := device.NewInfo(adv)
			fields := logrus.Fields{
				"device":  info.DisplayName(),
				"address": info.Address,
				"rssi":    info.RSSI,
			}
			if e, existing = devices.GetOrInsert(address, &entry{seq: seq.Add(1), info: info}); !existing {
				s.logger.WithFields(fields).Debug("Discovered new device")
				return
			}
		}

		e.update(adv, &closed)
	}

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	s.logger.WithField("duration", opts.Duration).Info("Starting BLE scan...")
	progressCallback("Scanning")

	// The backend delivers advertisements from its own goroutine and may keep delivering
	// after it returns.
	scanDone := groutine.GoErr(scanCtx, "ble-scan", func(ctx context.Context) error {
		log := s.logger.WithField("goroutine", groutine.GetName(ctx))
		log.Debug("Backend scan started")
		err := s.backend.Scan(ctx, !opts.DuplicateFilter, handler)
		log.WithError(err).Debug("Backend scan returned")
		return err
	})

	var err error
	select {
	case err = <-scanDone:
	case <-scanCtx.Done():
		// Give the backend a moment to stop delivering advertisements before the snapshot.
		select {
		case err = <-scanDone:
		case <-time.After(stopGracePeriod):
			err = scanCtx.Err()
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	progressCallback("Processing results")

	closed.Store(true)
	result := snapshot(devices)
	s.logger.WithField("device_count", len(result)).Info("BLE scan completed")
	return result, nil
}

func snapshot(devices *hashmap.Map[string, *entry]) []device.Info {
	entries := make([]*entry, 0, devices.Len())
	devices.Range(func(_ string, e *entry) bool {
		entries = append(entries, e)
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]device.Info, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.clone())
	}
	return result
}

// filter applies the allow/block/service options to the first advertisement of a device.
type filter struct {
	allow    map[string]struct{}
	block    map[string]struct{}
	services []string
}

func newFilter(opts *ScanOptions) *filter {
	f := &filter{
		block:    toSet(opts.BlockList),
		allow:    toSet(opts.AllowList),
		services: device.NormalizeUUIDs(opts.ServiceUUIDs),
	}
	return f
}

func toSet(addresses []string) map[string]struct{} {
	set := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		set[device.NormalizeAddress(a)] = struct{}{}
	}
	return set
}

func (f *filter) include(address string, adv device.Advertisement) bool {
	if _, blocked := f.block[address]; blocked {
		return false
	}

	if len(f.allow) > 0 {
		if _, allowed := f.allow[address]; !allowed {
			return false
		}
	}

	if len(f.services) > 0 {
		for _, required := range f.services {
			for _, advUUID := range adv.Services() {
				if required == device.NormalizeUUID(advUUID) {
					return true
				}
			}
		}
		return false
	}

	return true
}
