package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/srg/blepoll/internal/device"
)

// FakeScanner replays a fixed set of advertisements on every Scan call and then blocks until
// the context is done, like a real scan window.
type FakeScanner struct {
	mu     sync.Mutex
	rounds [][]device.Advertisement
	err    error
	calls  atomic.Int32
}

// NewFakeScanner creates a scanner that delivers advs on every scan.
func NewFakeScanner(advs ...device.Advertisement) *FakeScanner {
	return &FakeScanner{rounds: [][]device.Advertisement{advs}}
}

// WithRounds makes scan number i deliver rounds[i]; the last round repeats.
func (f *FakeScanner) WithRounds(rounds ...[]device.Advertisement) *FakeScanner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds = rounds
	return f
}

// WithError makes every scan fail with err after delivering its advertisements.
func (f *FakeScanner) WithError(err error) *FakeScanner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Calls returns how many scans were started.
func (f *FakeScanner) Calls() int {
	return int(f.calls.Load())
}

func (f *FakeScanner) Scan(ctx context.Context, _ bool, handler func(device.Advertisement)) error {
	n := int(f.calls.Add(1)) - 1

	f.mu.Lock()
	var advs []device.Advertisement
	if len(f.rounds) > 0 {
		if n >= len(f.rounds) {
			n = len(f.rounds) - 1
		}
		advs = f.rounds[n]
	}
	err := f.err
	f.mu.Unlock()

	for _, adv := range advs {
		handler(adv)
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// FakeClient is a connected peripheral with a fixed GATT profile.
type FakeClient struct {
	address     string
	services    []device.Service
	discoverErr error
	disconnects atomic.Int32
}

func (c *FakeClient) Address() string { return c.address }

func (c *FakeClient) DiscoverServices(context.Context) ([]device.Service, error) {
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}
	return c.services, nil
}

func (c *FakeClient) Disconnect() error {
	c.disconnects.Add(1)
	return nil
}

// Disconnects returns how many times Disconnect was called.
func (c *FakeClient) Disconnects() int {
	return int(c.disconnects.Load())
}

// FakeDialer hands out FakeClients and keeps every one it created.
type FakeDialer struct {
	mu          sync.Mutex
	services    map[string][]device.Service
	discoverErr error
	dialErr     error
	clients     []*FakeClient
}

// NewFakeDialer creates a dialer whose peripherals expose no services.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{services: make(map[string][]device.Service)}
}

// WithServices sets the profile returned for address.
func (d *FakeDialer) WithServices(address string, services ...device.Service) *FakeDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[address] = services
	return d
}

// WithDiscoverError makes service discovery fail on every client.
func (d *FakeDialer) WithDiscoverError(err error) *FakeDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discoverErr = err
	return d
}

// WithDialError makes every dial fail.
func (d *FakeDialer) WithDialError(err error) *FakeDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
	return d
}

func (d *FakeDialer) Dial(_ context.Context, address string) (device.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := &FakeClient{address: address, services: d.services[address], discoverErr: d.discoverErr}
	d.clients = append(d.clients, c)
	return c, nil
}

// Clients returns the clients created so far.
func (d *FakeDialer) Clients() []*FakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeClient(nil), d.clients...)
}

// OpenConnections counts clients that were never disconnected.
func (d *FakeDialer) OpenConnections() int {
	open := 0
	for _, c := range d.Clients() {
		if c.Disconnects() == 0 {
			open++
		}
	}
	return open
}
