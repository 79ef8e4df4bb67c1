package events

import (
	"encoding/json"

	"github.com/golang/glog"
	"github.com/lazharichir/baccarat/events"
	"github.com/lazharichir/baccarat/server/connection"
)

// EventEnvelope wraps an event with its name for client consumption
type EventEnvelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// Envelope marshals a named payload into an EventEnvelope.
func Envelope(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{Name: name, Payload: raw})
}

// Dispatcher handles routing run events to the clients watching them
type Dispatcher struct {
	connMgr *connection.Manager
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(connMgr *connection.Manager) *Dispatcher {
	return &Dispatcher{
		connMgr: connMgr,
	}
}

// HandleEvent sends an event to every client watching its run
func (d *Dispatcher) HandleEvent(event events.Event) {
	runID := events.GetRunID(event)
	if runID == "" {
		return
	}

	data, err := Envelope(event.EventName(), event)
	if err != nil {
		glog.Errorf("marshalling %s: %v", event.EventName(), err)
		return
	}

	sent := d.connMgr.SendToRun(runID, data)
	glog.V(2).Infof("dispatched %s for run %s to %d clients", event.EventName(), runID, sent)
}
