// internal/infra/clock/clock.go
package clock

import (
	"sync"
	"time"
)

// System reads the wall clock. The monotonic reading is stripped so that
// comparisons and subtraction use wall time, which includes time the device
// spent suspended.
type System struct{}

func (System) Now() time.Time {
	return time.Now().Round(0)
}

// Manual is a settable clock for tests and replay tooling.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t, backwards included.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}
