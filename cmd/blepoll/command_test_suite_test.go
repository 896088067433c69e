package main

import (
	"bytes"
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/testutils"
	"github.com/stretchr/testify/suite"
)

// Test device addresses for consistent fake device identification
const (
	TestDeviceAddress1 = "AA:BB:CC:DD:EE:FF"
	TestDeviceAddress2 = "7C:DF:A1:E8:7B:CE"
)

// fakeBackend combines the fake scanner and dialer into a bleBackend.
type fakeBackend struct {
	*testutils.FakeScanner
	*testutils.FakeDialer
	closed int
}

func (b *fakeBackend) Close() error {
	b.closed++
	return nil
}

// CommandTestSuite runs commands against a fake BLE backend.
// All cmd/blepoll test suites should embed it.
type CommandTestSuite struct {
	suite.Suite

	Backend           *fakeBackend
	originalBackendFn func(*logrus.Logger) bleBackend
}

func (s *CommandTestSuite) SetupTest() {
	s.Backend = &fakeBackend{
		FakeScanner: testutils.NewFakeScanner(),
		FakeDialer:  testutils.NewFakeDialer(),
	}
	s.originalBackendFn = newBackend
	newBackend = func(*logrus.Logger) bleBackend { return s.Backend }
}

func (s *CommandTestSuite) TearDownTest() {
	newBackend = s.originalBackendFn
}

// WithAdvertisements makes every scan deliver advs.
func (s *CommandTestSuite) WithAdvertisements(advs ...device.Advertisement) {
	s.Backend.FakeScanner = testutils.NewFakeScanner(advs...)
}

// ExecuteCommand runs a fresh command tree with args and returns stdout, stderr and the error.
func (s *CommandTestSuite) ExecuteCommand(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// ExecuteFor runs a long-running command and interrupts it after d, like Ctrl+C would.
func (s *CommandTestSuite) ExecuteFor(d time.Duration, args ...string) (string, string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timer := time.AfterFunc(d, cancel)
	defer timer.Stop()
	return s.ExecuteCommand(ctx, args...)
}
