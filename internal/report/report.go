// Package report renders poll results for humans (plain or colored text) and for machines
// (newline-delimited JSON).
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/srg/blepoll/internal/device"
	"golang.org/x/term"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON}

// Reporter receives the events of a poll in the order they happen.
// Implementations write synchronously; a write error is returned to the poller and ends the run.
type Reporter interface {
	PollStarted(pollID string) error
	DeviceFound(pollID string, dev device.Info) error
	DeviceDetails(pollID string, dev device.Info) error
	Services(pollID string, address string, services []device.Service) error
	PollFinished(pollID string, matches int) error
}

// New returns the reporter for format writing to w.
func New(format string, w io.Writer, useColor bool) (Reporter, error) {
	switch format {
	case FormatText, "":
		return NewTextReporter(w, useColor), nil
	case FormatJSON:
		return NewJSONReporter(w), nil
	default:
		return nil, fmt.Errorf("invalid format '%s': must be one of %v", format, Formats)
	}
}

// ShouldColor reports whether output written to w should be colored: w must be a terminal
// and color must not be disabled.
func ShouldColor(w io.Writer, noColor bool) bool {
	return !noColor && IsTerminal(w)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
