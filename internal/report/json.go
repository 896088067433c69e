package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/srg/blepoll/internal/device"
)

// Event names written in the "event" field.
const (
	EventPollStarted   = "poll_started"
	EventDeviceFound   = "device_found"
	EventDeviceDetails = "device_details"
	EventServices      = "services"
	EventPollFinished  = "poll_finished"
)

type jsonEvent struct {
	Event    string           `json:"event"`
	PollID   string           `json:"poll_id"`
	Time     time.Time        `json:"time"`
	Device   *device.Info     `json:"device,omitempty"`
	Details  string           `json:"details,omitempty"`
	Address  string           `json:"address,omitempty"`
	Services []device.Service `json:"services,omitempty"`
	Matches  *int             `json:"matches,omitempty"`
}

// JSONReporter writes one JSON object per event.
type JSONReporter struct {
	enc *json.Encoder
	now func() time.Time
}

// NewJSONReporter creates a newline-delimited JSON reporter.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w), now: time.Now}
}

func (r *JSONReporter) emit(ev jsonEvent) error {
	ev.Time = r.now().UTC()
	return r.enc.Encode(ev)
}

func (r *JSONReporter) PollStarted(pollID string) error {
	return r.emit(jsonEvent{Event: EventPollStarted, PollID: pollID})
}

func (r *JSONReporter) DeviceFound(pollID string, dev device.Info) error {
	return r.emit(jsonEvent{Event: EventDeviceFound, PollID: pollID, Device: &dev})
}

func (r *JSONReporter) DeviceDetails(pollID string, dev device.Info) error {
	return r.emit(jsonEvent{Event: EventDeviceDetails, PollID: pollID, Device: &dev, Details: dev.Details()})
}

func (r *JSONReporter) Services(pollID string, address string, services []device.Service) error {
	if services == nil {
		services = []device.Service{}
	}
	return r.emit(jsonEvent{Event: EventServices, PollID: pollID, Address: address, Services: services})
}

func (r *JSONReporter) PollFinished(pollID string, matches int) error {
	return r.emit(jsonEvent{Event: EventPollFinished, PollID: pollID, Matches: &matches})
}
