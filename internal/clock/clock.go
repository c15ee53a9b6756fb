package clock

import (
    "sync"
    "time"
)

// Clock abstracts the time source so that expiry and sweep logic can be
// driven with simulated time in tests.  All implementations return UTC.
type Clock interface {
    Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

type fixedClock struct {
    now time.Time
}

// NewFixed returns a clock that always reports the same instant.
func NewFixed(t time.Time) Clock { return fixedClock{now: t.UTC()} }

func (f fixedClock) Now() time.Time { return f.now }

// Manual is a clock whose current time is advanced explicitly.  It lets
// scheduler tests step through hold expiries without sleeping.
type Manual struct {
    mu  sync.Mutex
    now time.Time
}

// NewManual returns a Manual clock starting at t.
func NewManual(t time.Time) *Manual { return &Manual{now: t.UTC()} }

// Now returns the clock's current instant.
func (m *Manual) Now() time.Time {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.now = m.now.Add(d)
}

// Set jumps the clock to t.
func (m *Manual) Set(t time.Time) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.now = t.UTC()
}
