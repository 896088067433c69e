package scanner_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/testutils"
	"github.com/srg/blepoll/scanner"
	"github.com/stretchr/testify/require"
	suitelib "github.com/stretchr/testify/suite"
)

const testWindow = 30 * time.Millisecond

type ScannerTestSuite struct {
	suitelib.Suite

	logger           *logrus.Logger
	adv1, adv2, adv3 device.Advertisement
}

func (suite *ScannerTestSuite) SetupTest() {
	suite.logger = testutils.NewTestHelper(suite.T()).Logger

	suite.adv1 = testutils.CreateMockAdvertisement("Test Device 1", "AA:BB:CC:DD:EE:FF", -45).
		WithServices("180F", "1800").
		WithTxPower(11).
		Build()
	suite.adv2 = testutils.CreateMockAdvertisement("Test Device 2", "11:22:33:44:55:66", -67).
		WithServices("1801").
		WithTxPower(12).
		Build()
	suite.adv3 = testutils.CreateMockAdvertisement("Test Device 3", "99:88:77:66:55:44", -80).
		WithServices("1802").
		Build()
}

func (suite *ScannerTestSuite) scan(backend device.Scanner, opts *scanner.ScanOptions) []device.Info {
	s, err := scanner.NewScanner(backend, suite.logger)
	suite.Require().NoError(err)

	devices, err := s.Scan(context.Background(), opts, nil)
	suite.Require().NoError(err, "window expiry MUST NOT be reported as an error")
	return devices
}

func addresses(devices []device.Info) []string {
	result := make([]string, 0, len(devices))
	for _, d := range devices {
		result = append(result, d.Address)
	}
	return result
}

func (suite *ScannerTestSuite) TestNewScanner() {
	suite.Run("creates scanner with provided logger", func() {
		s, err := scanner.NewScanner(testutils.NewFakeScanner(), suite.logger)

		suite.NoError(err)
		suite.NotNil(s)
	})

	suite.Run("creates scanner with nil logger", func() {
		s, err := scanner.NewScanner(testutils.NewFakeScanner(), nil)

		suite.NoError(err)
		suite.NotNil(s)
	})

	suite.Run("rejects missing backend", func() {
		s, err := scanner.NewScanner(nil, suite.logger)

		suite.Error(err)
		suite.Nil(s)
	})
}

func (suite *ScannerTestSuite) TestDefaultScanOptions() {
	opts := scanner.DefaultScanOptions()

	suite.NotNil(opts)
	suite.Equal(5*time.Second, opts.Duration)
	suite.True(opts.DuplicateFilter)
	suite.Nil(opts.ServiceUUIDs)
	suite.Nil(opts.AllowList)
	suite.Nil(opts.BlockList)
}

func (suite *ScannerTestSuite) TestScannerFiltering() {
	tests := []struct {
		name        string
		scanOptions *scanner.ScanOptions
		expected    []string
		description string
	}{
		{
			name:        "includes all device with no filters",
			scanOptions: &scanner.ScanOptions{},
			expected:    []string{"AA:BB:CC:DD:EE:FF", "11:22:33:44:55:66", "99:88:77:66:55:44"},
			description: "No filters should include all discovered devices in first-seen order",
		},
		{
			name:        "excludes device on block list",
			scanOptions: &scanner.ScanOptions{BlockList: []string{"aa:bb:cc:dd:ee:ff"}},
			expected:    []string{"11:22:33:44:55:66", "99:88:77:66:55:44"},
			description: "Block list entries MUST match regardless of address case",
		},
		{
			name:        "includes device with matching service UUID",
			scanOptions: &scanner.ScanOptions{ServiceUUIDs: []string{"0000180f-0000-1000-8000-00805f9b34fb"}},
			expected:    []string{"AA:BB:CC:DD:EE:FF"},
			description: "Only devices with Battery Service (180F) should be included",
		},
		{
			name:        "excludes device without matching service UUID",
			scanOptions: &scanner.ScanOptions{ServiceUUIDs: []string{"1234"}},
			expected:    []string{},
			description: "No devices should match non-existent service UUID",
		},
		{
			name:        "includes device on allow list",
			scanOptions: &scanner.ScanOptions{AllowList: []string{"AA:BB:CC:DD:EE:FF"}},
			expected:    []string{"AA:BB:CC:DD:EE:FF"},
			description: "Only device on allow list should be included",
		},
		{
			name:        "excludes device not on allow list",
			scanOptions: &scanner.ScanOptions{AllowList: []string{"FF:EE:DD:CC:BB:AA"}},
			expected:    []string{},
			description: "No devices should match when allow list contains non-existent device",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			tt.scanOptions.Duration = testWindow
			backend := testutils.NewFakeScanner(suite.adv1, suite.adv2, suite.adv3)

			devices := suite.scan(backend, tt.scanOptions)

			suite.Equal(tt.expected, addresses(devices), tt.description)
		})
	}
}

// GOAL: Verify repeated advertisements collapse into one entry per address
//
// TEST SCENARIO: Same address advertises twice with a new RSSI and a late name → one entry, latest RSSI, name kept
func (suite *ScannerTestSuite) TestScanDeduplicatesByAddress() {
	first := testutils.CreateMockAdvertisement("", "aa:bb:cc:dd:ee:ff", -70).Build()
	second := testutils.CreateMockAdvertisement("ESP32", "AA:BB:CC:DD:EE:FF", -40).WithServices("180a").Build()
	third := testutils.CreateMockAdvertisement("", "AA:BB:CC:DD:EE:FF", -50).Build()

	devices := suite.scan(
		testutils.NewFakeScanner(first, suite.adv2, second, third),
		&scanner.ScanOptions{Duration: testWindow},
	)

	suite.Require().Len(devices, 2, "repeated advertisements MUST NOT create duplicate entries")
	suite.Equal("AA:BB:CC:DD:EE:FF", devices[0].Address, "first-seen order MUST be kept")
	suite.Equal("ESP32", devices[0].Name, "a later empty name MUST NOT erase a known name")
	suite.Equal(-50, devices[0].RSSI, "latest RSSI MUST win")
	suite.Equal([]string{"180a"}, devices[0].AdvertisedServices)
	suite.Equal("11:22:33:44:55:66", devices[1].Address)
}

// GOAL: Verify an empty window is a normal, empty result
//
// TEST SCENARIO: No advertisements during the window → empty slice, no error
func (suite *ScannerTestSuite) TestScanEmptyWindow() {
	devices := suite.scan(testutils.NewFakeScanner(), &scanner.ScanOptions{Duration: testWindow})

	suite.NotNil(devices)
	suite.Empty(devices)
}

// GOAL: Verify backend failures surface as wrapped errors
//
// TEST SCENARIO: Backend returns ErrBluetoothOff → scan error wrapping the sentinel
func (suite *ScannerTestSuite) TestScanBackendError() {
	s, err := scanner.NewScanner(testutils.NewFakeScanner().WithError(device.ErrBluetoothOff), suite.logger)
	suite.Require().NoError(err)

	devices, err := s.Scan(context.Background(), &scanner.ScanOptions{Duration: time.Second}, nil)

	suite.Nil(devices)
	suite.Require().Error(err)
	suite.ErrorIs(err, device.ErrBluetoothOff, "backend error MUST be wrapped, not replaced")
	suite.Contains(err.Error(), "scan failed")
}

// GOAL: Verify cancellation ends the scan and keeps what was collected
//
// TEST SCENARIO: Unbounded scan, parent context cancelled → collected devices, no error
func (suite *ScannerTestSuite) TestScanCancelled() {
	s, err := scanner.NewScanner(testutils.NewFakeScanner(suite.adv1), suite.logger)
	suite.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), testWindow)
	defer cancel()

	devices, err := s.Scan(ctx, &scanner.ScanOptions{Duration: 0}, nil)

	suite.NoError(err)
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF"}, addresses(devices))
}

func (suite *ScannerTestSuite) TestScanReportsProgress() {
	s, err := scanner.NewScanner(testutils.NewFakeScanner(), suite.logger)
	suite.Require().NoError(err)

	var phases []string
	_, err = s.Scan(context.Background(), &scanner.ScanOptions{Duration: testWindow}, func(phase string) {
		phases = append(phases, phase)
	})

	suite.NoError(err)
	suite.Equal([]string{"Scanning", "Processing results"}, phases)
}

// lingeringScanner keeps delivering advertisements from its own goroutine after Scan returned,
// the way platform stacks flush queued reports after the scan was stopped.
type lingeringScanner struct {
	delivered atomic.Int64
	stop      chan struct{}
	done      chan struct{}
}

func newLingeringScanner() *lingeringScanner {
	return &lingeringScanner{stop: make(chan struct{}), done: make(chan struct{})}
}

func (l *lingeringScanner) Scan(ctx context.Context, _ bool, handler func(device.Advertisement)) error {
	go func() {
		defer close(l.done)
		for i := 0; ; i++ {
			select {
			case <-l.stop:
				return
			default:
			}
			handler(testutils.CreateMockAdvertisement("ESP32", "7C:DF:A1:E8:7B:CE", -40-i%30).
				WithServices("180a", fmt.Sprintf("%04x", 0x2000+i%64)).
				WithServiceData("1800", []byte{byte(i)}).
				WithManufacturerData([]byte{0xe5, byte(i)}).
				Build())
			l.delivered.Add(1)
			time.Sleep(100 * time.Microsecond)
		}
	}()
	<-ctx.Done()
	return ctx.Err()
}

func (l *lingeringScanner) Close() {
	close(l.stop)
	<-l.done
}

// GOAL: Verify returned devices are detached from advertisements delivered after the window
//
// TEST SCENARIO: Backend keeps delivering after Scan returned → result stays unchanged and readable
func (suite *ScannerTestSuite) TestScanResultIgnoresLateAdvertisements() {
	backend := newLingeringScanner()
	defer backend.Close()

	devices := suite.scan(backend, &scanner.ScanOptions{Duration: 20 * time.Millisecond})
	suite.Require().Len(devices, 1)

	details := devices[0].Details()
	serviceData := append([]byte(nil), devices[0].ServiceData["1800"]...)
	services := append([]string(nil), devices[0].AdvertisedServices...)
	rssi := devices[0].RSSI
	seen := backend.delivered.Load()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = devices[0].Details()
			_ = devices[0].ServiceData["1800"]
			time.Sleep(100 * time.Microsecond)
		}
	}()
	suite.Eventually(func() bool { return backend.delivered.Load() > seen+10 }, time.Second, time.Millisecond,
		"backend MUST still be delivering after Scan returned")
	wg.Wait()

	suite.Equal(details, devices[0].Details(), "late advertisements MUST NOT change a returned device")
	suite.Equal(serviceData, devices[0].ServiceData["1800"])
	suite.Equal(services, devices[0].AdvertisedServices)
	suite.Equal(rssi, devices[0].RSSI)
}

func TestScanLogsBackendGoroutine(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	s, err := scanner.NewScanner(testutils.NewFakeScanner(), helper.Logger)
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), &scanner.ScanOptions{Duration: testWindow}, nil)
	require.NoError(t, err)

	require.Contains(t, helper.Logs.String(), "goroutine=ble-scan", "backend scan MUST run in the named goroutine")
	require.Contains(t, helper.Logs.String(), "Backend scan returned")
}

func TestScannerTestSuite(t *testing.T) {
	suitelib.Run(t, new(ScannerTestSuite))
}

func TestScanIsRepeatable(t *testing.T) {
	backend := testutils.NewFakeScanner(
		testutils.CreateMockAdvertisement("ESP32", "AA:BB:CC:DD:EE:FF", -40).Build(),
		testutils.CreateMockAdvertisement("other", "CC:DD:EE:FF:00:11", -60).Build(),
	)
	s, err := scanner.NewScanner(backend, nil)
	require.NoError(t, err)

	opts := &scanner.ScanOptions{Duration: testWindow}
	first, err := s.Scan(context.Background(), opts, nil)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), opts, nil)
	require.NoError(t, err)

	require.Equal(t, first, second, "identical advertisements MUST produce identical scan results")
	require.Equal(t, 2, backend.Calls())
}
