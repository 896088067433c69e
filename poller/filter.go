package poller

import (
	"fmt"
	"strings"

	"github.com/srg/blepoll/internal/device"
)

// FilterKind is the device field a Filter compares.
type FilterKind string

const (
	FilterByName    FilterKind = "name"
	FilterByAddress FilterKind = "address"
)

// Filter selects devices whose name or address equals a target exactly.
type Filter struct {
	kind   FilterKind
	target string
}

// ByName matches devices whose advertised name equals target. The comparison is case-sensitive
// and devices without a name never match. Blank targets are rejected like in ByAddress.
func ByName(target string) (Filter, error) {
	if strings.TrimSpace(target) == "" {
		return Filter{}, fmt.Errorf("target name is empty")
	}
	return Filter{kind: FilterByName, target: target}, nil
}

// ByAddress matches devices whose address equals target. Callers canonicalize user input with
// device.NormalizeAddress; the comparison itself is exact.
func ByAddress(target string) (Filter, error) {
	if strings.TrimSpace(target) == "" {
		return Filter{}, fmt.Errorf("target address is empty")
	}
	return Filter{kind: FilterByAddress, target: target}, nil
}

func (f Filter) Kind() FilterKind { return f.kind }
func (f Filter) Target() string   { return f.target }

// IsZero reports whether f was never constructed by ByName or ByAddress.
func (f Filter) IsZero() bool { return f.kind == "" }

// Matches evaluates the predicate for a single device.
func (f Filter) Matches(d device.Info) bool {
	switch f.kind {
	case FilterByName:
		return d.Name == f.target
	case FilterByAddress:
		return d.Address == f.target
	default:
		return false
	}
}

// Match returns the devices satisfying the predicate, in scan order.
func (f Filter) Match(devices []device.Info) []device.Info {
	matches := make([]device.Info, 0)
	for _, d := range devices {
		if f.Matches(d) {
			matches = append(matches, d)
		}
	}
	return matches
}

func (f Filter) String() string {
	return fmt.Sprintf("%s=%q", f.kind, f.target)
}
