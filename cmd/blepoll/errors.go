package main

import (
	"errors"
	"fmt"

	"github.com/srg/blepoll/internal/device"
)

// FormatUserError turns known failures into messages that tell the user what to do.
func FormatUserError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off or unavailable; turn it on and try again"
	case errors.Is(err, device.ErrTimeout):
		return fmt.Sprintf("%s; make sure the device is powered and in range", err)
	case errors.Is(err, device.ErrNotConnected):
		return fmt.Sprintf("device disconnected unexpectedly: %s", err)
	case errors.Is(err, device.ErrAlreadyConnected):
		return fmt.Sprintf("%s; another client may hold the connection", err)
	default:
		return err.Error()
	}
}
