package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"duallist/internal/domain"
)

// Re-export domain types for convenience
type Channel = domain.Channel

const (
	SelectionChanged = domain.SelectionChanged
	ReorderApplied   = domain.ReorderApplied
)

// Handler is a zero-argument subscriber callback
type Handler func()

// EventBus is the interface for the event bus
type EventBus interface {
	Emit(channel Channel)
	// Subscribe registers handler on channel and returns a function that
	// removes exactly that registration. Calling it more than once is a no-op.
	Subscribe(channel Channel, handler Handler) func()
	Subscribers(channel Channel) int
}

type subscription struct {
	id      uint64
	handler Handler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Channel][]subscription
}

// New creates a new event bus
func New() EventBus {
	return &bus{
		handlers: make(map[Channel][]subscription),
	}
}

// Emit calls every handler registered on channel at the time of the call,
// synchronously and in subscription order. Handlers may subscribe or
// unsubscribe while Emit runs; the iteration works on a snapshot.
func (b *bus) Emit(channel Channel) {
	b.mu.RLock()
	handlers := b.handlers[channel]
	// Make a copy to avoid holding lock during handler execution
	snapshot := make([]subscription, len(handlers))
	copy(snapshot, handlers)
	b.mu.RUnlock()

	log.Printf("EventBus: emitting %s to %d subscribers", channel, len(snapshot))

	for _, sub := range snapshot {
		b.call(channel, sub.handler)
	}
}

func (b *bus) call(channel Channel, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Event handler panic for %s: %v\nStack: %s", channel, r, debug.Stack())
		}
	}()
	h()
}

// Subscribe subscribes to a channel
// Returns an unsubscribe function
func (b *bus) Subscribe(channel Channel, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[channel] = append(b.handlers[channel], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			handlers := b.handlers[channel]
			for i, sub := range handlers {
				if sub.id == id {
					// Build a fresh slice so snapshots taken by Emit stay intact
					next := make([]subscription, 0, len(handlers)-1)
					next = append(next, handlers[:i]...)
					next = append(next, handlers[i+1:]...)
					b.handlers[channel] = next
					break
				}
			}
		})
	}
}

// Subscribers returns how many handlers are registered on channel
func (b *bus) Subscribers(channel Channel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[channel])
}
