package main

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/internal/device"
	goble "github.com/srg/blepoll/internal/device/go-ble"
)

// bleBackend is the BLE host library as the commands see it.
type bleBackend interface {
	device.Scanner
	device.Dialer
	Close() error
}

// newBackend is replaced in tests.
var newBackend = func(logger *logrus.Logger) bleBackend {
	return goble.NewBackend(logger)
}

func closeBackend(backend bleBackend, logger *logrus.Logger) {
	if err := backend.Close(); err != nil {
		logger.WithError(err).Warn("failed to close BLE device")
	}
}
