package testutils

import (
	"github.com/srg/blepoll/internal/device"
)

// AdvertisementBuilder builds device.Advertisement values for tests.
// Unset fields behave like an advertisement that did not carry them.
type AdvertisementBuilder struct {
	adv *advertisement
}

type advertisement struct {
	name        string
	address     string
	rssi        int
	services    []string
	manufData   []byte
	serviceData []device.ServiceData
	txPower     int
	connectable bool
}

func (a *advertisement) LocalName() string                 { return a.name }
func (a *advertisement) ManufacturerData() []byte          { return a.manufData }
func (a *advertisement) ServiceData() []device.ServiceData { return a.serviceData }
func (a *advertisement) Services() []string                { return a.services }
func (a *advertisement) TxPowerLevel() int                 { return a.txPower }
func (a *advertisement) Connectable() bool                 { return a.connectable }
func (a *advertisement) RSSI() int                         { return a.rssi }
func (a *advertisement) Addr() string                      { return a.address }

// NewAdvertisementBuilder creates a builder for a connectable advertisement without TX power.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{adv: &advertisement{
		txPower:     127,
		connectable: true,
	}}
}

// WithName sets the local name for the advertisement.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.name = name
	return b
}

// WithAddress sets the device address for the advertisement.
func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.address = addr
	return b
}

// WithRSSI sets the signal strength for the advertisement.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.rssi = rssi
	return b
}

// WithServices adds service UUIDs to the advertisement.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.adv.services = append(b.adv.services, uuids...)
	return b
}

// WithManufacturerData sets the manufacturer-specific data.
func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.manufData = data
	return b
}

// WithServiceData adds service-specific data for the given service UUID.
func (b *AdvertisementBuilder) WithServiceData(uuid string, data []byte) *AdvertisementBuilder {
	b.adv.serviceData = append(b.adv.serviceData, device.ServiceData{UUID: uuid, Data: data})
	return b
}

// WithTxPower sets the transmission power level.
func (b *AdvertisementBuilder) WithTxPower(power int) *AdvertisementBuilder {
	b.adv.txPower = power
	return b
}

// WithConnectable sets whether the device accepts connections.
func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.adv.connectable = c
	return b
}

// Build returns the advertisement. The builder must not be reused afterwards.
func (b *AdvertisementBuilder) Build() device.Advertisement {
	return b.adv
}
