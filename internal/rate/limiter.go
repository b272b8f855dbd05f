// Package rate throttles event admission with a sliding window counted
// per (logger, level) pair.
package rate

import (
	"sync"
	"time"

	"github.com/bitranox/lib-log-rich/core"
)

type key struct {
	logger string
	level  core.Level
}

// Limiter admits at most MaxEvents per key within a sliding window.
// Admission is all-or-nothing; a rejected event is never retried.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	clock  core.Clock
	seen   map[key][]time.Time
}

// New creates a limiter admitting max events per window for each
// (logger, level) pair. A nil clock uses the system clock. A
// non-positive max disables limiting entirely.
func New(max int, window time.Duration, clock core.Clock) *Limiter {
	if clock == nil {
		clock = core.SystemClock()
	}
	return &Limiter{
		max:    max,
		window: window,
		clock:  clock,
		seen:   make(map[key][]time.Time),
	}
}

// Allow reports whether an event for the given logger and level is
// admitted, recording the admission timestamp when it is.
func (l *Limiter) Allow(logger string, level core.Level) bool {
	if l.max <= 0 || l.window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	k := key{logger, level}
	cutoff := now.Add(-l.window)

	stamps := l.seen[k]
	live := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= l.max {
		l.seen[k] = live
		return false
	}
	l.seen[k] = append(live, now)
	return true
}

// Reset drops all recorded admissions.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = make(map[key][]time.Time)
}
