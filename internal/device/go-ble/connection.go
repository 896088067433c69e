package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/internal/bledb"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/groutine"
)

// Dial connects to the peripheral at address. The returned client must be disconnected by
// the caller.
func (b *Backend) Dial(ctx context.Context, address string) (device.Client, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("device address is empty")
	}

	dev, err := b.device()
	if err != nil {
		return nil, err
	}

	b.logger.WithField("address", address).Debug("Dialing BLE device...")
	client, err := dev.Dial(ctx, ble.NewAddr(strings.ToLower(address)))
	if err != nil {
		return nil, NormalizeError(err)
	}

	return &BLEClient{address: address, client: client, logger: b.logger}, nil
}

// BLEClient is a live go-ble connection implementing device.Client
type BLEClient struct {
	address string
	client  ble.Client
	logger  *logrus.Logger

	closeOnce sync.Once
	closeErr  error
}

func (c *BLEClient) Address() string {
	return c.address
}

// DiscoverServices runs a full profile discovery. go-ble discovery is not cancellable, so it
// runs in its own goroutine and ctx only bounds how long we wait for it; Disconnect aborts the
// exchange on the link.
func (c *BLEClient) DiscoverServices(ctx context.Context) ([]device.Service, error) {
	type result struct {
		profile *ble.Profile
		err     error
	}
	done := make(chan result, 1)

	groutine.Go(ctx, "ble-discover-profile", func(context.Context) {
		profile, err := c.client.DiscoverProfile(true)
		done <- result{profile: profile, err: err}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to discover profile: %w", NormalizeError(r.err))
		}
		services := convertProfile(r.profile)
		c.logger.WithFields(logrus.Fields{
			"address":  c.address,
			"services": len(services),
		}).Debug("Profile discovered successfully")
		return services, nil
	}
}

// Disconnect cancels the connection. Repeated calls return the first result.
func (c *BLEClient) Disconnect() error {
	c.closeOnce.Do(func() {
		c.closeErr = NormalizeError(c.client.CancelConnection())
		if c.closeErr != nil {
			c.logger.WithError(c.closeErr).Warn("BLE device disconnected with errors")
		} else {
			c.logger.WithField("address", c.address).Debug("BLE device disconnected")
		}
	})
	return c.closeErr
}

// convertProfile maps a go-ble profile to device services, keeping the library order.
func convertProfile(profile *ble.Profile) []device.Service {
	if profile == nil {
		return nil
	}

	services := make([]device.Service, 0, len(profile.Services))
	for _, bleSvc := range profile.Services {
		rawUUID := bleSvc.UUID.String()
		svc := device.Service{
			UUID:            device.NormalizeUUID(rawUUID),
			KnownName:       bledb.LookupService(rawUUID),
			Characteristics: make([]device.Characteristic, 0, len(bleSvc.Characteristics)),
		}
		for _, bleChar := range bleSvc.Characteristics {
			charRawUUID := bleChar.UUID.String()
			svc.Characteristics = append(svc.Characteristics, device.Characteristic{
				UUID:       device.NormalizeUUID(charRawUUID),
				KnownName:  bledb.LookupCharacteristic(charRawUUID),
				Properties: convertProperties(bleChar.Property),
			})
		}
		services = append(services, svc)
	}
	return services
}

var propertyMap = []struct {
	ble ble.Property
	dev device.Properties
}{
	{ble.CharBroadcast, device.PropBroadcast},
	{ble.CharRead, device.PropRead},
	{ble.CharWriteNR, device.PropWriteWithoutResponse},
	{ble.CharWrite, device.PropWrite},
	{ble.CharNotify, device.PropNotify},
	{ble.CharIndicate, device.PropIndicate},
	{ble.CharSignedWrite, device.PropAuthenticatedSignedWrites},
	{ble.CharExtended, device.PropExtendedProperties},
}

func convertProperties(p ble.Property) device.Properties {
	var props device.Properties
	for _, m := range propertyMap {
		if p&m.ble != 0 {
			props |= m.dev
		}
	}
	return props
}
