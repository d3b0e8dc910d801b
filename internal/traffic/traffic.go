// Package traffic keeps sliding windows of request outcomes for the health
// endpoint: overload (denials), idle (accepted volume) and degraded (5xx rate).
package traffic

import (
	"sync"
	"time"
)

// Outcome classifies one finished request.
type Outcome uint8

const (
	// Success is any response below 500, including 422 validation failures.
	Success Outcome = iota
	// Error is a 5xx response.
	Error
	// Denied is a rate-limit rejection (429).
	Denied
)

// retention bounds memory; health windows longer than this see truncated counts.
const retention = 30 * time.Minute

var defaultTracker = NewTracker(time.Now)

// RecordSuccess records an accepted request that did not fail server-side.
func RecordSuccess() { defaultTracker.Record(Success, 1) }

// RecordError records a 5xx outcome.
func RecordError() { defaultTracker.Record(Error, 1) }

// RecordDenied records a 429.
func RecordDenied() { defaultTracker.Record(Denied, 1) }

// RecordN records n outcomes at once. Used by the testing-mode load endpoints.
func RecordN(o Outcome, n int) { defaultTracker.Record(o, n) }

// RequestCount returns all outcomes (success + error + denied) within window.
func RequestCount(window time.Duration) int { return defaultTracker.RequestCount(window) }

// AcceptedCount returns success + error outcomes within window; denials excluded.
func AcceptedCount(window time.Duration) int { return defaultTracker.AcceptedCount(window) }

// DenialCount returns denials within window.
func DenialCount(window time.Duration) int { return defaultTracker.DenialCount(window) }

// ErrorRate returns (errors, successes+errors) within window.
func ErrorRate(window time.Duration) (errors, total int) { return defaultTracker.ErrorRate(window) }

// Reset clears the process-wide tracker.
func Reset() { defaultTracker.Reset() }

// event is a batch of n outcomes recorded at the same instant.
type event struct {
	at      time.Time
	outcome Outcome
	n       int
}

// Tracker is a time-ordered log of outcomes. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	now    func() time.Time
	events []event
}

// NewTracker returns a Tracker reading time from now.
func NewTracker(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Record adds n outcomes at the current time as a single event.
func (t *Tracker) Record(o Outcome, n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.events = append(t.events, event{at: now, outcome: o, n: n})
	t.pruneLocked(now)
}

// RequestCount returns all outcomes within window.
func (t *Tracker) RequestCount(window time.Duration) int {
	c := t.count(window)
	return c[Success] + c[Error] + c[Denied]
}

// AcceptedCount returns success and error outcomes within window.
func (t *Tracker) AcceptedCount(window time.Duration) int {
	c := t.count(window)
	return c[Success] + c[Error]
}

// DenialCount returns denials within window.
func (t *Tracker) DenialCount(window time.Duration) int {
	return t.count(window)[Denied]
}

// ErrorRate returns (errors, successes+errors) within window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	c := t.count(window)
	return c[Error], c[Success] + c[Error]
}

// Reset drops every recorded outcome.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

func (t *Tracker) count(window time.Duration) [3]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.pruneLocked(now)
	cutoff := now.Add(-window)
	var c [3]int
	// events are appended in time order; walk back from the newest.
	for i := len(t.events) - 1; i >= 0 && !t.events[i].at.Before(cutoff); i-- {
		c[t.events[i].outcome] += t.events[i].n
	}
	return c
}

func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
