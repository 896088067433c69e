package inspector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srg/blepoll/inspector"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const espAddress = "AA:BB:CC:DD:EE:FF"

var batteryService = device.Service{
	UUID:      "180f",
	KnownName: "Battery Service",
	Characteristics: []device.Characteristic{
		{UUID: "2a19", KnownName: "Battery Level", Properties: device.PropRead | device.PropNotify},
	},
}

func countCharacteristics(services []device.Service) (int, error) {
	n := 0
	for _, s := range services {
		n += len(s.Characteristics)
	}
	return n, nil
}

func TestInspectDevice_PassesServicesAndDisconnects(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	dialer := testutils.NewFakeDialer().WithServices(espAddress, batteryService)

	var phases []string
	n, err := inspector.InspectDevice(context.Background(), dialer, espAddress, nil, helper.Logger,
		func(phase string) { phases = append(phases, phase) },
		countCharacteristics)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Connecting", "Connected", "Processing results"}, phases)
	require.Len(t, dialer.Clients(), 1)
	assert.Equal(t, 1, dialer.Clients()[0].Disconnects(), "connection MUST be released exactly once")
}

// GOAL: Verify the connection is released when service enumeration fails
//
// TEST SCENARIO: Discovery returns an error → error returned, client disconnected, callback never called
func TestInspectDevice_DiscoveryFailureReleasesConnection(t *testing.T) {
	boom := errors.New("att: request failed")
	dialer := testutils.NewFakeDialer().WithDiscoverError(boom)

	called := false
	_, err := inspector.InspectDevice(context.Background(), dialer, espAddress, nil, nil, nil,
		func([]device.Service) (struct{}, error) {
			called = true
			return struct{}{}, nil
		})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to discover services of "+espAddress)
	assert.False(t, called, "callback MUST NOT run without services")
	assert.Zero(t, dialer.OpenConnections(), "connection MUST be released after enumeration failure")
}

func TestInspectDevice_CallbackFailureReleasesConnection(t *testing.T) {
	boom := errors.New("write failed")
	dialer := testutils.NewFakeDialer().WithServices(espAddress, batteryService)

	_, err := inspector.InspectDevice(context.Background(), dialer, espAddress, nil, nil, nil,
		func([]device.Service) (int, error) { return 0, boom })

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, dialer.OpenConnections())
}

func TestInspectDevice_CallbackPanicReleasesConnection(t *testing.T) {
	dialer := testutils.NewFakeDialer().WithServices(espAddress, batteryService)

	assert.Panics(t, func() {
		_, _ = inspector.InspectDevice(context.Background(), dialer, espAddress, nil, nil, nil,
			func([]device.Service) (int, error) { panic("reporter exploded") })
	})
	assert.Zero(t, dialer.OpenConnections(), "connection MUST be released while unwinding a panic")
}

func TestInspectDevice_DialFailure(t *testing.T) {
	dialer := testutils.NewFakeDialer().WithDialError(device.ErrBluetoothOff)

	var phases []string
	_, err := inspector.InspectDevice(context.Background(), dialer, espAddress,
		&inspector.InspectOptions{ConnectTimeout: time.Second}, nil,
		func(phase string) { phases = append(phases, phase) },
		countCharacteristics)

	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrBluetoothOff)
	assert.Equal(t, []string{"Connecting", "Failed"}, phases)
	assert.Empty(t, dialer.Clients())
}
