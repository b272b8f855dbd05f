package sinks

import (
	"sync"

	"github.com/bitranox/lib-log-rich/core"
)

// MemorySink stores log events in memory for testing purposes.
type MemorySink struct {
	mu     sync.RWMutex
	events []*core.LogEvent
}

// NewMemorySink creates a new memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Name identifies the sink in diagnostics.
func (m *MemorySink) Name() string { return "memory" }

// Emit stores a copy of the event.
func (m *MemorySink) Emit(event *core.LogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event.Clone())
	return nil
}

// Flush does nothing for the memory sink.
func (m *MemorySink) Flush() error { return nil }

// Close does nothing for the memory sink.
func (m *MemorySink) Close() error { return nil }

// Events returns a copy of all stored events.
func (m *MemorySink) Events() []*core.LogEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.LogEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Count returns the number of stored events.
func (m *MemorySink) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Clear removes all stored events.
func (m *MemorySink) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = m.events[:0]
}

// FindEvents returns events matching the predicate.
func (m *MemorySink) FindEvents(predicate func(*core.LogEvent) bool) []*core.LogEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.LogEvent
	for _, e := range m.events {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out
}

// LastEvent returns the most recent event, or nil when empty.
func (m *MemorySink) LastEvent() *core.LogEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}
