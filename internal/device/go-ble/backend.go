package goble

import (
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
)

// Backend owns the platform BLE device and implements device.Scanner and device.Dialer.
type Backend struct {
	logger *logrus.Logger

	mu  sync.Mutex
	dev ble.Device
}

// NewBackend creates a backend. The platform device is opened on first use.
func NewBackend(logger *logrus.Logger) *Backend {
	if logger == nil {
		logger = logrus.New()
	}
	return &Backend{logger: logger}
}

// device returns the shared platform device, creating it through DeviceFactory if needed.
// A failed creation is not cached so the next call retries.
func (b *Backend) device() (ble.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev != nil {
		return b.dev, nil
	}

	b.logger.Debug("Opening BLE device...")
	dev, err := DeviceFactory()
	if err != nil {
		return nil, NormalizeError(err)
	}
	b.dev = dev
	return dev, nil
}

// Close stops the platform device if it was opened.
func (b *Backend) Close() error {
	b.mu.Lock()
	dev := b.dev
	b.dev = nil
	b.mu.Unlock()

	if dev == nil {
		return nil
	}
	b.logger.Debug("Stopping BLE device")
	return NormalizeError(dev.Stop())
}
