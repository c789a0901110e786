// Package clock abstracts the timers used for delayed broadcasts so
// tests can drive them deterministically.
package clock

import "time"

// Clock is the subset of the time package that schedulers depend on.
// Production code injects Real(); tests inject a FakeClock.
type Clock interface {
	Now() time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (real) or
	// synchronously inside Advance (fake). The returned Timer cancels
	// the pending call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a scheduled call created by AfterFunc
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns true if the call stops
// the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}
