package goble

import (
	"context"

	ble "github.com/go-ble/ble"
	"github.com/srg/blepoll/internal/device"
)

// Scan wraps the raw ble.Device.Scan to convert ble.Advertisement to the device.Advertisement
func (b *Backend) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	dev, err := b.device()
	if err != nil {
		return err
	}

	bleHandler := func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	}
	return NormalizeError(dev.Scan(ctx, allowDup, bleHandler))
}
