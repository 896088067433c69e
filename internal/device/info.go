package device

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// txPowerUnavailable is the value the BLE libraries report when an advertisement carries no
// TX power level.
const txPowerUnavailable = 127

// Info is a device seen during a single scan window.
//
// Name is the advertised local name and is empty when the device did not advertise one.
// Address is in NormalizeAddress form and is unique within one scan result.
type Info struct {
	Name               string            `json:"name"`
	Address            string            `json:"address"`
	RSSI               int               `json:"rssi"`
	TxPower            *int              `json:"tx_power,omitempty"`
	Connectable        bool              `json:"connectable"`
	AdvertisedServices []string          `json:"services"`
	ManufacturerData   []byte            `json:"manufacturer_data,omitempty"`
	ServiceData        map[string][]byte `json:"service_data,omitempty"`
}

// NewInfo creates an Info from the first advertisement of a device.
func NewInfo(adv Advertisement) *Info {
	info := &Info{
		Address:            NormalizeAddress(adv.Addr()),
		AdvertisedServices: make([]string, 0),
	}
	info.Update(adv)
	return info
}

// Update merges a later advertisement of the same device. The latest RSSI wins, names and
// payloads are only replaced by non-empty values, and service lists are unioned.
func (i *Info) Update(adv Advertisement) {
	i.RSSI = adv.RSSI()
	i.Connectable = adv.Connectable()

	if name := adv.LocalName(); name != "" {
		i.Name = name
	}

	if manufData := adv.ManufacturerData(); len(manufData) > 0 {
		i.ManufacturerData = append([]byte(nil), manufData...)
	}

	needsSort := false
	for _, svc := range adv.Services() {
		normalized := NormalizeUUID(svc)
		if normalized == "" || i.hasService(normalized) {
			continue
		}
		i.AdvertisedServices = append(i.AdvertisedServices, normalized)
		needsSort = true
	}
	if needsSort {
		sort.Strings(i.AdvertisedServices)
	}

	for _, sd := range adv.ServiceData() {
		if i.ServiceData == nil {
			i.ServiceData = make(map[string][]byte)
		}
		i.ServiceData[NormalizeUUID(sd.UUID)] = append([]byte(nil), sd.Data...)
	}

	if tx := adv.TxPowerLevel(); tx != txPowerUnavailable {
		i.TxPower = &tx
	}
}

// Clone returns a deep copy of i that shares no slices or maps with it.
func (i *Info) Clone() Info {
	c := *i
	if i.TxPower != nil {
		tx := *i.TxPower
		c.TxPower = &tx
	}
	c.AdvertisedServices = append(make([]string, 0, len(i.AdvertisedServices)), i.AdvertisedServices...)
	if i.ManufacturerData != nil {
		c.ManufacturerData = append([]byte(nil), i.ManufacturerData...)
	}
	if i.ServiceData != nil {
		c.ServiceData = make(map[string][]byte, len(i.ServiceData))
		for k, v := range i.ServiceData {
			c.ServiceData[k] = append([]byte(nil), v...)
		}
	}
	return c
}

func (i *Info) hasService(uuid string) bool {
	for _, s := range i.AdvertisedServices {
		if s == uuid {
			return true
		}
	}
	return false
}

// DisplayName returns the name, or a placeholder for unnamed devices.
func (i *Info) DisplayName() string {
	if i.Name == "" {
		return "(unknown)"
	}
	return i.Name
}

// Details renders everything the advertisement told us about the device on one line.
func (i *Info) Details() string {
	parts := []string{
		fmt.Sprintf("%s: %s", i.Address, i.DisplayName()),
		fmt.Sprintf("rssi=%d", i.RSSI),
		fmt.Sprintf("connectable=%t", i.Connectable),
	}
	if i.TxPower != nil {
		parts = append(parts, fmt.Sprintf("tx_power=%d", *i.TxPower))
	}
	if len(i.AdvertisedServices) > 0 {
		parts = append(parts, "services=["+strings.Join(i.AdvertisedServices, ",")+"]")
	}
	if len(i.ManufacturerData) > 0 {
		parts = append(parts, "manufacturer_data="+hex.EncodeToString(i.ManufacturerData))
	}
	if len(i.ServiceData) > 0 {
		keys := make([]string, 0, len(i.ServiceData))
		for k := range i.ServiceData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sd := make([]string, 0, len(keys))
		for _, k := range keys {
			sd = append(sd, k+":"+hex.EncodeToString(i.ServiceData[k]))
		}
		parts = append(parts, "service_data=["+strings.Join(sd, ",")+"]")
	}
	return strings.Join(parts, " ")
}
