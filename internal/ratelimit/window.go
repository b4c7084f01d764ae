// Package ratelimit implements a per-identifier sliding-window log limiter.
//
// The limiter keeps the exact timestamps of admitted requests inside a
// trailing window, so admission decisions are precise rather than bucketed.
// State is process-local and in-memory: a restart resets all counters. That
// is a known limitation of this limiter, not an accident.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits or rejects requests per identifier using a sliding-window
// log. Distinct identifiers never block one another; calls for the same
// identifier serialize on that identifier's window.
type Limiter struct {
	limit  int
	window time.Duration

	entries sync.Map // identifier -> *entry

	// now is swappable for tests.
	now func() time.Time
}

type entry struct {
	mu    sync.Mutex
	times []time.Time
}

// New creates a Limiter admitting at most limit requests per identifier
// within the trailing window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Limit returns the configured request capacity.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// Admit records a request for identifier and reports whether it is within
// the limit. Stale timestamps are trimmed first; a rejected attempt is not
// recorded and does not extend the window.
func (l *Limiter) Admit(identifier string) bool {
	v, _ := l.entries.LoadOrStore(identifier, &entry{})
	e := v.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := e.times[:0]
	for _, ts := range e.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.times = kept

	if len(e.times) >= l.limit {
		return false
	}
	e.times = append(e.times, now)
	return true
}

// Remaining reports how many requests identifier could still make right now,
// without recording anything.
func (l *Limiter) Remaining(identifier string) int {
	v, ok := l.entries.Load(identifier)
	if !ok {
		return l.limit
	}
	e := v.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, ts := range e.times {
		if ts.After(cutoff) {
			n++
		}
	}
	if n >= l.limit {
		return 0
	}
	return l.limit - n
}
