package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/srg/blepoll/internal/device"
)

// TextReporter writes the human-readable console format.
type TextReporter struct {
	w io.Writer

	header  *color.Color
	name    *color.Color
	address *color.Color
	service *color.Color
	dim     *color.Color
}

// NewTextReporter creates a text reporter. Colors are only emitted when useColor is set.
func NewTextReporter(w io.Writer, useColor bool) *TextReporter {
	r := &TextReporter{
		w:       w,
		header:  color.New(color.Bold),
		name:    color.New(color.FgGreen, color.Bold),
		address: color.New(color.FgCyan),
		service: color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.header, r.name, r.address, r.service, r.dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *TextReporter) PollStarted(string) error {
	_, err := fmt.Fprintln(r.w, "Scanning for BLE devices...")
	return err
}

func (r *TextReporter) DeviceFound(_ string, dev device.Info) error {
	_, err := fmt.Fprintf(r.w, "Device found: %s, Address: %s\n",
		r.name.Sprint(dev.Name), r.address.Sprint(dev.Address))
	return err
}

func (r *TextReporter) DeviceDetails(_ string, dev device.Info) error {
	_, err := fmt.Fprintln(r.w, r.dim.Sprint(dev.Details()))
	return err
}

func (r *TextReporter) Services(_ string, address string, services []device.Service) error {
	if _, err := fmt.Fprintf(r.w, "%s\n", r.header.Sprintf("Services and Characteristics for device at %s:", address)); err != nil {
		return err
	}
	for _, svc := range services {
		if _, err := fmt.Fprintf(r.w, "\nService: %s\n", r.service.Sprint(svc.String())); err != nil {
			return err
		}
		for _, char := range svc.Characteristics {
			if _, err := fmt.Fprintf(r.w, "  - Characteristic: %s\n", char.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// PollFinished separates polls with two blank lines.
func (r *TextReporter) PollFinished(string, int) error {
	_, err := fmt.Fprint(r.w, "\n\n")
	return err
}
