package events

import "reflect"

// Event is the interface that all domain events must implement.
type Event interface {
	EventName() string // Returns a unique name for the event type
}

// EventHandler is notified of every event appended to a store.
type EventHandler func(event Event)

// GetRunID extracts the RunID field from an event, or "" if it has none.
func GetRunID(event Event) string {
	val := reflect.ValueOf(event)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return ""
	}
	field := val.FieldByName("RunID")
	if field.IsValid() && field.Kind() == reflect.String {
		return field.String()
	}
	return ""
}
