// Package ringbuffer retains the most recent log events in a fixed-size
// FIFO for on-demand dumps.
package ringbuffer

import (
	"sync"

	"github.com/bitranox/lib-log-rich/core"
)

// DefaultCapacity is used when no explicit ring size is configured.
const DefaultCapacity = 25000

// RingBuffer is a bounded FIFO of log events. Appending beyond capacity
// evicts the oldest event. Safe for concurrent append and snapshot.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []*core.LogEvent
	head  int
	count int
}

// New creates a ring buffer with the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingBuffer{buf: make([]*core.LogEvent, capacity)}
}

// Append adds an event, evicting the oldest when full.
func (r *RingBuffer) Append(event *core.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tail := (r.head + r.count) % len(r.buf)
	r.buf[tail] = event
	if r.count == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
	} else {
		r.count++
	}
}

// Snapshot returns a stable copy of the retained events, oldest first.
// Appends racing with Snapshot are not reflected in the returned slice.
func (r *RingBuffer) Snapshot() []*core.LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*core.LogEvent, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Flush discards all retained events.
func (r *RingBuffer) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.buf {
		r.buf[i] = nil
	}
	r.head = 0
	r.count = 0
}

// Len returns the number of retained events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}
