// Package inspector opens a scoped connection to a peripheral and hands its GATT profile to a
// callback. The connection never outlives the call.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/internal/device"
)

// ProgressCallback is called when the inspection phase changes
type ProgressCallback func(phase string)

// InspectOptions defines options for inspecting a BLE device profile
type InspectOptions struct {
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout bounds dialing when no options are given.
const DefaultConnectTimeout = 30 * time.Second

// InspectCallback processes the discovered services and produces output of type R
type InspectCallback[R any] func(services []device.Service) (R, error)

// InspectDevice connects to the device at address, discovers its services and executes the
// callback with them. The connection is released on every path out of the function, including
// failed discovery, a failing callback and a panicking callback.
func InspectDevice[R any](ctx context.Context, dialer device.Dialer, address string, opts *InspectOptions, logger *logrus.Logger, progressCallback ProgressCallback, callback InspectCallback[R]) (R, error) {
	var zero R
	if opts == nil {
		opts = &InspectOptions{ConnectTimeout: DefaultConnectTimeout}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	progressCallback("Connecting")

	dialCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	client, err := dialer.Dial(dialCtx, address)
	if err != nil {
		progressCallback("Failed")
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, fmt.Errorf("failed to connect to %s: %w after %s", address, device.ErrTimeout, opts.ConnectTimeout)
		}
		return zero, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	progressCallback("Connected")

	// Ensure the device is disconnected after the callback completes
	defer func(client device.Client) {
		if err := client.Disconnect(); err != nil {
			logger.WithError(err).WithField("address", address).Error("failed to disconnect device")
		}
	}(client)

	logger.WithField("address", address).Debug("Discovering services...")
	services, err := client.DiscoverServices(ctx)
	if err != nil {
		progressCallback("Failed")
		return zero, fmt.Errorf("failed to discover services of %s: %w", address, err)
	}

	progressCallback("Processing results")

	return callback(services)
}
