package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time moves only when Advance is
// called; due callbacks run synchronously in deadline order inside
// Advance. Safe for concurrent use. Do not call Advance from a callback.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	nextSeq int
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	seq      int
	callback func()
	stopped  bool
	fired    bool
}

// Fake returns a FakeClock set to initial
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock has advanced by d. If
// d <= 0, f runs before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stopFunc: func() bool { return false }}
	}

	c.mu.Lock()
	waiter := &fakeWaiter{
		deadline: c.current.Add(d),
		seq:      c.nextSeq,
		callback: f,
	}
	c.nextSeq++
	c.waiters = append(c.waiters, waiter)
	c.mu.Unlock()

	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if waiter.stopped || waiter.fired {
			return false
		}
		waiter.stopped = true
		return true
	}}
}

// Advance moves the clock forward by d and runs every callback whose
// deadline is now due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current

	var due, pending []*fakeWaiter
	for _, w := range c.waiters {
		switch {
		case w.stopped || w.fired:
		case !w.deadline.After(now):
			w.fired = true
			due = append(due, w)
		default:
			pending = append(pending, w)
		}
	}
	c.waiters = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, w := range due {
		w.callback()
	}
}

// Pending reports how many timers are waiting to fire
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			n++
		}
	}
	return n
}
