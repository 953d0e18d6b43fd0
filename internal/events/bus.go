// Package events carries board signals to subscribers.
package events

import (
	"sync"
	"time"
)

// Type represents the type of board event.
type Type int

const (
	// TopologyReady is emitted once, after a board's cells are generated and
	// wired.
	TopologyReady Type = iota
	// ValidityRecomputed is emitted after every validity pass.
	ValidityRecomputed
)

// String returns a human-readable representation of the event type.
func (t Type) String() string {
	switch t {
	case TopologyReady:
		return "TopologyReady"
	case ValidityRecomputed:
		return "ValidityRecomputed"
	default:
		return "Unknown"
	}
}

// Event is a single board signal.
type Event struct {
	Type      Type           `json:"type"`
	Board     int            `json:"board"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Bus manages subscriptions and delivery.
type Bus interface {
	// Subscribe registers handler under id, replacing any previous handler.
	Subscribe(id string, handler func(Event))

	// Unsubscribe removes the handler registered under id.
	Unsubscribe(id string)

	// Publish sends an event to every subscribed handler.
	Publish(event Event)
}

// SimpleBus is an in-memory Bus. Handlers run on the publishing goroutine,
// in no particular order, and must not block.
type SimpleBus struct {
	mu       sync.RWMutex
	handlers map[string]func(Event)
}

// NewSimpleBus creates a new in-memory bus.
func NewSimpleBus() *SimpleBus {
	return &SimpleBus{handlers: make(map[string]func(Event))}
}

// Subscribe registers handler under id.
func (bus *SimpleBus) Subscribe(id string, handler func(Event)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[id] = handler
}

// Unsubscribe removes the handler registered under id.
func (bus *SimpleBus) Unsubscribe(id string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.handlers, id)
}

// Publish sends event to every handler and returns once all have run.
func (bus *SimpleBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.RLock()
	handlers := make([]func(Event), 0, len(bus.handlers))
	for _, h := range bus.handlers {
		handlers = append(handlers, h)
	}
	bus.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Len returns the number of registered handlers.
func (bus *SimpleBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.handlers)
}

// Close unregisters every handler.
func (bus *SimpleBus) Close() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers = make(map[string]func(Event))
}

// NullBus discards every event.
type NullBus struct{}

// NewNullBus creates a new null bus.
func NewNullBus() *NullBus {
	return &NullBus{}
}

// Subscribe does nothing.
func (bus *NullBus) Subscribe(id string, handler func(Event)) {}

// Unsubscribe does nothing.
func (bus *NullBus) Unsubscribe(id string) {}

// Publish does nothing.
func (bus *NullBus) Publish(event Event) {}
