// Package inbox carries messages produced outside the Bubble Tea loop
// (bus subscribers, timers) into it.
package inbox

import (
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Inbox is a bounded queue in front of tea.Program.Send. Post never
// blocks; a full inbox drops the message and logs it.
type Inbox struct {
	ch     chan tea.Msg
	mu     sync.RWMutex
	closed bool
}

// New creates an inbox holding up to size pending messages
func New(size int) *Inbox {
	if size <= 0 {
		size = 100
	}
	return &Inbox{ch: make(chan tea.Msg, size)}
}

// Post queues msg for delivery
func (i *Inbox) Post(msg tea.Msg) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return
	}
	select {
	case i.ch <- msg:
	default:
		// Channel full, drop message
		log.Printf("Inbox full, dropping %T", msg)
	}
}

// Forward delivers queued messages to send until Close is called.
// Run it in its own goroutine.
func (i *Inbox) Forward(send func(tea.Msg)) {
	for msg := range i.ch {
		send(msg)
	}
}

// Close stops Forward. Later posts are discarded.
func (i *Inbox) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.closed {
		i.closed = true
		close(i.ch)
	}
}
