package events

import (
	"fmt"
	"sync"
)

// EventStore is the interface for storing and retrieving events.
type EventStore interface {
	Append(event Event) error
	LoadEvents(runID string) ([]Event, error)
	Delete(runID string) error
}

// InMemoryEventStore is an in-memory implementation of the EventStore interface.
type InMemoryEventStore struct {
	events   map[string][]Event
	handlers []EventHandler
	mutex    sync.RWMutex
}

// NewInMemoryEventStore creates a new in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]Event),
	}
}

// Subscribe registers a handler called after every successful Append.
func (s *InMemoryEventStore) Subscribe(handler EventHandler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.handlers = append(s.handlers, handler)
}

// Append adds a new event to the store.
func (s *InMemoryEventStore) Append(event Event) error {
	runID := GetRunID(event)
	if runID == "" {
		return fmt.Errorf("event %T has no runID", event)
	}

	s.mutex.Lock()
	s.events[runID] = append(s.events[runID], event)
	handlers := make([]EventHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mutex.Unlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// LoadEvents retrieves all events for the given runID.
func (s *InMemoryEventStore) LoadEvents(runID string) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if events, exists := s.events[runID]; exists {
		// Make a copy to avoid potential race conditions
		result := make([]Event, len(events))
		copy(result, events)
		return result, nil
	}

	// Return empty slice if no events found
	return []Event{}, nil
}

// Delete drops every event of a run.
func (s *InMemoryEventStore) Delete(runID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.events, runID)
	return nil
}

// Len returns the number of stored events across all runs.
func (s *InMemoryEventStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	n := 0
	for _, e := range s.events {
		n += len(e)
	}
	return n
}

// GetEvents returns every stored event, grouped by run.
func (s *InMemoryEventStore) GetEvents() []Event {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var events []Event
	for _, e := range s.events {
		events = append(events, e...)
	}
	return events
}
