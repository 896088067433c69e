// Package bledb resolves GATT UUIDs to human-readable names.
//
// The database is an embedded YAML document of Bluetooth SIG assigned numbers plus the
// custom OTA profile exposed by the ESP32 firmware this tool is usually pointed at.
// Entries keep the order of the document so listings are stable.
package bledb

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

//go:embed known_uuids.yaml
var knownUUIDsYAML []byte

// Kind is the category of a GATT UUID.
type Kind string

const (
	Service        Kind = "service"
	Characteristic Kind = "characteristic"
	Descriptor     Kind = "descriptor"
)

// Kinds lists the categories in listing order.
var Kinds = []Kind{Service, Characteristic, Descriptor}

// sigBaseSuffix is the tail of the Bluetooth SIG base UUID 0000xxxx-0000-1000-8000-00805f9b34fb.
const sigBaseSuffix = "00001000800000805f9b34fb"

// Entry is a single named UUID.
type Entry struct {
	UUID string `yaml:"uuid" json:"uuid"`
	Name string `yaml:"name" json:"name"`
}

type document struct {
	Services        []Entry `yaml:"services"`
	Characteristics []Entry `yaml:"characteristics"`
	Descriptors     []Entry `yaml:"descriptors"`
}

// Database maps normalized UUIDs to names, per kind.
type Database struct {
	tables map[Kind]*orderedmap.OrderedMap[string, string]
}

var (
	defaultDB     *Database
	defaultDBErr  error
	defaultDBOnce sync.Once
)

// Parse builds a Database from a YAML document with services, characteristics and
// descriptors sections.
func Parse(data []byte) (*Database, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse UUID database: %w", err)
	}

	db := &Database{tables: make(map[Kind]*orderedmap.OrderedMap[string, string], len(Kinds))}
	sections := map[Kind][]Entry{
		Service:        doc.Services,
		Characteristic: doc.Characteristics,
		Descriptor:     doc.Descriptors,
	}
	for _, kind := range Kinds {
		table := orderedmap.New[string, string]()
		for i, e := range sections[kind] {
			uuid := NormalizeUUID(e.UUID)
			if uuid == "" || strings.TrimSpace(e.Name) == "" {
				return nil, fmt.Errorf("invalid %s entry at index %d: uuid=%q name=%q", kind, i, e.UUID, e.Name)
			}
			if _, dup := table.Set(uuid, e.Name); dup {
				return nil, fmt.Errorf("duplicate %s uuid %q", kind, e.UUID)
			}
		}
		db.tables[kind] = table
	}
	return db, nil
}

// Default returns the embedded database. It panics if the embedded document is malformed,
// which is a build defect rather than a runtime condition.
func Default() *Database {
	defaultDBOnce.Do(func() {
		defaultDB, defaultDBErr = Parse(knownUUIDsYAML)
	})
	if defaultDBErr != nil {
		panic(defaultDBErr)
	}
	return defaultDB
}

// Lookup returns the name registered for uuid under kind, or "" if unknown.
func (db *Database) Lookup(kind Kind, uuid string) string {
	table, ok := db.tables[kind]
	if !ok {
		return ""
	}
	name, _ := table.Get(NormalizeUUID(uuid))
	return name
}

// Entries returns the entries of a kind in document order.
func (db *Database) Entries(kind Kind) []Entry {
	table, ok := db.tables[kind]
	if !ok {
		return nil
	}
	entries := make([]Entry, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{UUID: pair.Key, Name: pair.Value})
	}
	return entries
}

// LookupService returns the well-known name of a service UUID.
func LookupService(uuid string) string {
	return Default().Lookup(Service, uuid)
}

// LookupCharacteristic returns the well-known name of a characteristic UUID.
func LookupCharacteristic(uuid string) string {
	return Default().Lookup(Characteristic, uuid)
}

// LookupDescriptor returns the well-known name of a descriptor UUID.
func LookupDescriptor(uuid string) string {
	return Default().Lookup(Descriptor, uuid)
}

// NormalizeUUID converts a UUID string to the form used by the BLE library: lowercase
// hex without dashes, braces or a 0x prefix. Full 128-bit UUIDs built on the Bluetooth SIG
// base are shortened to their 16-bit form. Strings that are not hex yield "".
func NormalizeUUID(uuid string) string {
	s := strings.ToLower(strings.TrimSpace(uuid))
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, "-", "")

	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return ""
		}
	}

	if len(s) == 32 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, sigBaseSuffix) {
		return s[4:8]
	}
	return s
}

// NormalizeUUIDs normalizes every element of uuids.
func NormalizeUUIDs(uuids []string) []string {
	normalized := make([]string, len(uuids))
	for i, uuid := range uuids {
		normalized[i] = NormalizeUUID(uuid)
	}
	return normalized
}
