package lifecycle

import (
	"sync/atomic"
	"time"
)

var (
	shuttingDown atomic.Bool
	ready        atomic.Bool
)

// SetShuttingDown sets the drain flag. Health reports shutting-down (503) while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// SetReady marks the process as ready (or not) to receive traffic.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports whether the ready delay has elapsed.
func IsReady() bool {
	return ready.Load()
}

// MarkReadyAfter flips the ready flag once delay elapses. A non-positive delay marks ready immediately.
// The returned timer may be stopped to cancel.
func MarkReadyAfter(delay time.Duration) *time.Timer {
	if delay <= 0 {
		SetReady(true)
		return nil
	}
	return time.AfterFunc(delay, func() { SetReady(true) })
}
