package device

import (
	"fmt"
	"strings"
)

// Properties is the characteristic property bitmask as defined by the Bluetooth core
// specification (Vol 3, Part G, 3.3.1.1).
type Properties uint8

const (
	PropBroadcast Properties = 1 << iota
	PropRead
	PropWriteWithoutResponse
	PropWrite
	PropNotify
	PropIndicate
	PropAuthenticatedSignedWrites
	PropExtendedProperties
)

var propertyNames = []struct {
	prop Properties
	name string
}{
	{PropBroadcast, "broadcast"},
	{PropRead, "read"},
	{PropWriteWithoutResponse, "write-without-response"},
	{PropWrite, "write"},
	{PropNotify, "notify"},
	{PropIndicate, "indicate"},
	{PropAuthenticatedSignedWrites, "authenticated-signed-writes"},
	{PropExtendedProperties, "extended-properties"},
}

// Has reports whether all bits of p2 are set in p.
func (p Properties) Has(p2 Properties) bool {
	return p&p2 == p2
}

// Names returns the names of the set properties in bit order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(propertyNames))
	for _, pn := range propertyNames {
		if p.Has(pn.prop) {
			names = append(names, pn.name)
		}
	}
	return names
}

func (p Properties) String() string {
	return strings.Join(p.Names(), ",")
}

// MarshalText renders the property list, so JSON output shows names instead of a number.
func (p Properties) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Characteristic is a GATT characteristic as discovered on a connected peripheral.
type Characteristic struct {
	UUID       string     `json:"uuid"`
	KnownName  string     `json:"name,omitempty"`
	Properties Properties `json:"properties"`
}

func (c Characteristic) String() string {
	return describe(c.UUID, c.KnownName, c.Properties.String())
}

// Service is a GATT service together with its characteristics.
type Service struct {
	UUID            string           `json:"uuid"`
	KnownName       string           `json:"name,omitempty"`
	Characteristics []Characteristic `json:"characteristics"`
}

func (s Service) String() string {
	return describe(s.UUID, s.KnownName, "")
}

// describe formats "uuid (Name) [extra]" leaving out empty parts.
func describe(uuid, name, extra string) string {
	var b strings.Builder
	b.WriteString(uuid)
	if name != "" {
		fmt.Fprintf(&b, " (%s)", name)
	}
	if extra != "" {
		fmt.Fprintf(&b, " [%s]", extra)
	}
	return b.String()
}
