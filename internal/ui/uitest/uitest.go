// Package uitest drives pane models in tests: an in-memory item service
// and helpers that run Bubble Tea commands synchronously.
package uitest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"duallist/internal/domain"
)

// Service is an in-memory item service. Select applies immediately.
type Service struct {
	mu        sync.Mutex
	Available []int
	Selected  []int
	Calls     []string

	ListErr    error
	SelectErr  error
	AddErr     error
	ReorderErr error
}

// NewService seeds the available list with 1..n
func NewService(n int) *Service {
	s := &Service{}
	for i := 1; i <= n; i++ {
		s.Available = append(s.Available, i)
	}
	return s
}

func (s *Service) record(format string, args ...any) {
	s.Calls = append(s.Calls, fmt.Sprintf(format, args...))
}

func page(ids []int, offset, limit int) domain.Page {
	p := domain.Page{Items: []domain.Item{}, Total: len(ids)}
	if offset < len(ids) {
		for _, id := range ids[offset:min(offset+limit, len(ids))] {
			p.Items = append(p.Items, domain.Item{ID: id})
		}
	}
	return p
}

func (s *Service) ListItems(_ context.Context, req domain.PageRequest) (domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GET /items filter=%s offset=%d limit=%d", req.Filter, req.Offset, req.Limit)
	if s.ListErr != nil {
		return domain.Page{}, s.ListErr
	}
	var matched []int
	for _, id := range s.Available {
		if strings.Contains(strconv.Itoa(id), req.Filter) {
			matched = append(matched, id)
		}
	}
	return page(matched, req.Offset, req.Limit), nil
}

func (s *Service) ListSelected(_ context.Context, req domain.PageRequest) (domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GET /selected offset=%d limit=%d", req.Offset, req.Limit)
	if s.ListErr != nil {
		return domain.Page{}, s.ListErr
	}
	return page(s.Selected, req.Offset, req.Limit), nil
}

func (s *Service) Select(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("POST /select %d", id)
	if s.SelectErr != nil {
		return s.SelectErr
	}
	if i := slices.Index(s.Available, id); i >= 0 {
		s.Available = slices.Delete(s.Available, i, i+1)
		s.Selected = append(s.Selected, id)
	}
	return nil
}

func (s *Service) Add(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("POST /add %d", id)
	return s.AddErr
}

func (s *Service) Reorder(_ context.Context, order []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("POST /reorder %v", order)
	return s.ReorderErr
}

// CallsWithPrefix returns the recorded calls starting with prefix
func (s *Service) CallsWithPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// cmdTimeout bounds each command; timers and cursor blinks never finish
// in time and are dropped.
const cmdTimeout = 50 * time.Millisecond

// Run executes cmd and flattens batches into the messages produced
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		switch msg := msg.(type) {
		case nil:
			return nil
		case tea.BatchMsg:
			var out []tea.Msg
			for _, c := range msg {
				out = append(out, Run(c)...)
			}
			return out
		default:
			return []tea.Msg{msg}
		}
	case <-time.After(cmdTimeout):
		return nil
	}
}

// Updater is a model whose Update returns only a command
type Updater interface {
	Update(msg tea.Msg) tea.Cmd
}

// Drive runs cmd, feeds every resulting message accepted by route back
// into m, and repeats until no commands are left. Messages route rejects
// are returned in arrival order.
func Drive(m Updater, cmd tea.Cmd, route func(tea.Msg) bool) []tea.Msg {
	var rest []tea.Msg
	queue := Run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		if !route(msg) {
			rest = append(rest, msg)
			continue
		}
		queue = append(queue, Run(m.Update(msg))...)
	}
	return rest
}

// Mailbox collects posted messages
type Mailbox struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (b *Mailbox) Post(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

// Take returns and clears the collected messages
func (b *Mailbox) Take() []tea.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.msgs
	b.msgs = nil
	return msgs
}

// Key builds a key message the way Bubble Tea reports typed keys
func Key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
