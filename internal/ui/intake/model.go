// Package intake implements the form that submits new ids to the store.
// The store applies additions asynchronously, so consumers are told to
// refresh only after a fixed delay.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"duallist/internal/clock"
	"duallist/internal/eventbus"
	"duallist/internal/itemclient"
	"duallist/internal/ui/keys"
	"duallist/internal/ui/notice"
	"duallist/internal/ui/views"
)

// API is the part of the item service the form uses
type API interface {
	Add(ctx context.Context, id int) error
}

// State is the intake form state
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Rejected
	Accepted // until every accepted id has been broadcast
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	default:
		return "idle"
	}
}

// ValidationError rejects input before any network call
type ValidationError struct {
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid id %q: must be a positive number", e.Input)
}

// Parse validates input as a positive integer id
func Parse(input string) (int, error) {
	trimmed := strings.TrimSpace(input)
	id, err := strconv.Atoi(trimmed)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Input: trimmed}
	}
	return id, nil
}

// AddResult reports the outcome of an add call
type AddResult struct {
	ID  int
	Err error
}

// UpdatedMsg is posted once the intake delay for ID has passed and
// consumers were told to refresh.
type UpdatedMsg struct {
	ID int
}

// Options tunes the form
type Options struct {
	BroadcastDelay time.Duration // how long the store takes to ingest an id
}

// Model is the intake form
type Model struct {
	ctx   context.Context
	api   API
	bus   eventbus.EventBus
	clock clock.Clock
	post  func(tea.Msg)
	opts  Options

	keys   keys.KeyMap
	styles *views.Styles

	input   textinput.Model
	state   State
	pending int // accepted ids whose broadcast has not fired yet
	width   int
}

// New creates the form. post delivers the delayed UpdatedMsg back into
// the program.
func New(ctx context.Context, api API, bus eventbus.EventBus, clk clock.Clock, post func(tea.Msg), opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter any number"
	ti.Prompt = "Add new ID: "
	ti.CharLimit = 18

	return &Model{
		ctx:    ctx,
		api:    api,
		bus:    bus,
		clock:  clk,
		post:   post,
		opts:   opts,
		keys:   keys.DefaultKeyMap,
		styles: views.NewStyles(),
		input:  ti,
	}
}

// Submit validates the input and posts it to the store. Ignored while a
// previous submission is in flight.
func (m *Model) Submit() tea.Cmd {
	if m.state == Submitting {
		return nil
	}
	m.state = Validating

	id, err := Parse(m.input.Value())
	if err != nil {
		m.state = Rejected
		return notice.Show(notice.Error, "Invalid ID", "ID must be a positive number.")
	}

	m.state = Submitting
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		return AddResult{ID: id, Err: api.Add(ctx, id)}
	}
}

func (m *Model) handleAddResult(msg AddResult) tea.Cmd {
	if msg.Err != nil {
		m.state = Rejected
		log.Printf("Add %d failed: %v", msg.ID, msg.Err)

		var transportErr *itemclient.TransportError
		switch {
		case errors.Is(msg.Err, itemclient.ErrConflict):
			return notice.Show(notice.Error, "ID already exists", fmt.Sprintf("ID %d is already in the system.", msg.ID))
		case errors.As(msg.Err, &transportErr):
			return notice.Show(notice.Error, "Error", "Could not reach the item service.")
		default:
			return notice.Show(notice.Error, "Error", "Server rejected this ID.")
		}
	}

	m.state = Accepted
	m.input.Reset()
	m.schedule(msg.ID)

	return notice.Show(notice.Info, "ID accepted",
		fmt.Sprintf("ID %d will be added within ~%d seconds", msg.ID, int(m.opts.BroadcastDelay.Seconds())))
}

// schedule tells consumers to refresh once the store has had time to
// ingest id. The timer is not tied to the form and always fires.
func (m *Model) schedule(id int) {
	m.pending++
	bus, post := m.bus, m.post
	m.clock.AfterFunc(m.opts.BroadcastDelay, func() {
		bus.Emit(eventbus.SelectionChanged)
		post(UpdatedMsg{ID: id})
	})
}

// Update handles form messages. Keys are only handled while focused.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case AddResult:
		if m.state != Submitting {
			return nil
		}
		return m.handleAddResult(msg)

	case UpdatedMsg:
		m.pending = max(0, m.pending-1)
		if m.state == Accepted && m.pending == 0 {
			m.state = Idle
		}
		return notice.Show(notice.Success, "Updated", "New elements were added")

	case tea.KeyMsg:
		if !m.input.Focused() {
			return nil
		}
		if key.Matches(msg, m.keys.Submit) {
			return m.Submit()
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before && m.state == Rejected {
			m.state = Idle
		}
		return cmd
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	return nil
}

// SetValue replaces the input text
func (m *Model) SetValue(s string) { m.input.SetValue(s) }

func (m *Model) Value() string { return m.input.Value() }

func (m *Model) State() State { return m.state }

// Pending counts accepted ids still waiting for their broadcast
func (m *Model) Pending() int { return m.pending }

func (m *Model) Focus() tea.Cmd { return m.input.Focus() }

func (m *Model) Blur() { m.input.Blur() }

func (m *Model) Focused() bool { return m.input.Focused() }

func (m *Model) SetWidth(width int) {
	m.width = width
	m.input.Width = max(1, width-len(m.input.Prompt)-12)
}

// View renders the form on one line
func (m *Model) View() string {
	line := m.input.View()
	switch m.state {
	case Submitting:
		line += m.styles.Loading.Render("  adding…")
	case Accepted:
		line += m.styles.Footer.Render(fmt.Sprintf("  %d pending", m.pending))
	}
	return line
}
