// Package available implements the left pane: a filterable, incrementally
// loaded list of items that can be moved into the selection.
package available

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"duallist/internal/clock"
	"duallist/internal/domain"
	"duallist/internal/eventbus"
	"duallist/internal/paging"
	"duallist/internal/ui/keys"
	"duallist/internal/ui/notice"
	"duallist/internal/ui/views"
)

// Source names this pane's collection in paging.PageMsg
const Source = "available"

// API is the part of the item service this pane uses
type API interface {
	ListItems(ctx context.Context, req domain.PageRequest) (domain.Page, error)
	Select(ctx context.Context, id int) error
}

// RefreshMsg is posted when the selection changed elsewhere
type RefreshMsg struct{}

// SelectResult reports the outcome of a select call
type SelectResult struct {
	ID  int
	Err error
}

// Options tunes the pane
type Options struct {
	Limit          int
	BroadcastDelay time.Duration // wait before telling others about a select
}

// Model is the available items pane
type Model struct {
	ctx   context.Context
	api   API
	bus   eventbus.EventBus
	clock clock.Clock
	post  func(tea.Msg)
	opts  Options

	keys   keys.KeyMap
	styles *views.Styles

	filter   textinput.Model
	items    *paging.Collection[string]
	sentinel *paging.Sentinel
	window   views.ListWindow
	width    int
	focused  bool

	unmount []func()
}

// New creates the pane. post delivers messages from bus callbacks back
// into the program.
func New(ctx context.Context, api API, bus eventbus.EventBus, clk clock.Clock, post func(tea.Msg), opts Options) *Model {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	ti := textinput.New()
	ti.Placeholder = "Filter by ID..."
	ti.Prompt = "/ "
	ti.CharLimit = 18

	m := &Model{
		ctx:      ctx,
		api:      api,
		bus:      bus,
		clock:    clk,
		post:     post,
		opts:     opts,
		keys:     keys.DefaultKeyMap,
		styles:   views.NewStyles(),
		filter:   ti,
		sentinel: paging.NewSentinel(),
		window:   views.ListWindow{Height: 10},
	}
	m.items = paging.New(Source, opts.Limit, m.fetch, paging.Append).WithContext(ctx)
	return m
}

func (m *Model) fetch(ctx context.Context, filter string, offset, limit int) (domain.Page, error) {
	return m.api.ListItems(ctx, domain.PageRequest{Filter: filter, Offset: offset, Limit: limit})
}

// Mount subscribes to selection changes, attaches the sentinel and loads
// the first page.
func (m *Model) Mount() tea.Cmd {
	m.unmount = append(m.unmount,
		m.bus.Subscribe(eventbus.SelectionChanged, func() { m.post(RefreshMsg{}) }),
		m.items.ObserveSentinel(m.sentinel),
	)
	return m.items.Reset(m.filter.Value())
}

// Unmount detaches everything Mount attached. Scheduled broadcasts keep
// running; they go to the shared bus.
func (m *Model) Unmount() {
	for _, fn := range m.unmount {
		fn()
	}
	m.unmount = nil
}

// SetFilter changes the filter text and resets the list when it differs
func (m *Model) SetFilter(filter string) tea.Cmd {
	if filter == m.filter.Value() {
		return nil
	}
	m.filter.SetValue(filter)
	return m.reset()
}

func (m *Model) reset() tea.Cmd {
	m.window.Top()
	return m.items.Reset(m.filter.Value())
}

// SelectItem moves id into the selection. Whatever the outcome the filter
// is cleared and a selectionChanged broadcast is scheduled; a failure also
// raises a notice.
func (m *Model) SelectItem(id int) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		return SelectResult{ID: id, Err: api.Select(ctx, id)}
	}
}

func (m *Model) handleSelectResult(msg SelectResult) tea.Cmd {
	var toast tea.Cmd
	if msg.Err != nil {
		log.Printf("Select %d failed: %v", msg.ID, msg.Err)
		toast = notice.Show(notice.Error, "Error", fmt.Sprintf("Could not select ID %d.", msg.ID))
	}

	// a rejected select (409 while pending) can still change the selection
	cmd := m.SetFilter("")

	bus := m.bus
	m.clock.AfterFunc(m.opts.BroadcastDelay, func() {
		bus.Emit(eventbus.SelectionChanged)
	})
	return tea.Batch(toast, cmd)
}

// Update handles pane messages. Key messages are only handled while focused.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case paging.PageMsg:
		return m.applyPage(msg)

	case RefreshMsg:
		return m.reset()

	case SelectResult:
		return m.handleSelectResult(msg)

	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		if m.filter.Focused() {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.filter.Focused() {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) applyPage(msg paging.PageMsg) tea.Cmd {
	before := m.items.Len()
	if !m.items.Apply(msg) {
		return nil
	}
	if msg.Err != nil {
		log.Printf("Available items: load at offset %d failed: %v", msg.Offset, msg.Err)
		return nil
	}
	m.window.Clamp(m.rows())
	// an empty trailing page must not retrigger the sentinel
	if m.items.Len() > before {
		return m.checkSentinel()
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.filter.Blur()
		return nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		return tea.Batch(cmd, m.reset())
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	rows := m.rows()
	switch {
	case key.Matches(msg, m.keys.Filter):
		return m.filter.Focus()
	case key.Matches(msg, m.keys.Back):
		if strings.TrimSpace(m.filter.Value()) != "" {
			return m.SetFilter("")
		}
		return nil
	case key.Matches(msg, m.keys.Reload):
		return m.reset()
	case key.Matches(msg, m.keys.Select):
		if it, ok := m.Current(); ok {
			return m.SelectItem(it.ID)
		}
		return nil
	case key.Matches(msg, m.keys.Up):
		m.window.Move(-1, rows)
	case key.Matches(msg, m.keys.Down):
		m.window.Move(1, rows)
	case key.Matches(msg, m.keys.PageUp):
		m.window.Move(-m.window.Page(), rows)
	case key.Matches(msg, m.keys.PageDown):
		m.window.Move(m.window.Page(), rows)
	case key.Matches(msg, m.keys.Home):
		m.window.Top()
	case key.Matches(msg, m.keys.End):
		m.window.Bottom(rows)
	default:
		return nil
	}
	return m.checkSentinel()
}

// checkSentinel fires the sentinel when the loading row is on screen
func (m *Model) checkSentinel() tea.Cmd {
	if m.items.HasMore() && m.window.Visible(m.items.Len()) {
		return m.sentinel.Intersect()
	}
	return nil
}

// rows counts rendered lines: items plus the loading row
func (m *Model) rows() int {
	if m.items.HasMore() {
		return m.items.Len() + 1
	}
	return m.items.Len()
}

// Current returns the item under the cursor
func (m *Model) Current() (domain.Item, bool) {
	items := m.items.Items()
	if m.window.Cursor < 0 || m.window.Cursor >= len(items) {
		return domain.Item{}, false
	}
	return items[m.window.Cursor], true
}

// SetSize gives the pane its content area
func (m *Model) SetSize(width, height int) tea.Cmd {
	m.width = width
	m.filter.Width = max(1, width-len(m.filter.Prompt)-1)
	// title, filter and footer lines
	m.window.SetHeight(height-3, m.rows())
	return m.checkSentinel()
}

func (m *Model) Focus() { m.focused = true }

func (m *Model) Blur() {
	m.focused = false
	m.filter.Blur()
}

func (m *Model) Focused() bool { return m.focused }

// Editing reports whether the filter box has the keyboard
func (m *Model) Editing() bool { return m.filter.Focused() }

func (m *Model) Filter() string { return m.filter.Value() }

func (m *Model) Items() []domain.Item { return m.items.Items() }

func (m *Model) Loading() bool { return m.items.Loading() }

func (m *Model) Window() views.ListWindow { return m.window }

// View renders the pane content
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.PaneTitle.Render("Available"))
	b.WriteString("\n")
	if m.filter.Focused() || m.filter.Value() != "" {
		b.WriteString(m.styles.Filter.Render(m.filter.View()))
	} else {
		b.WriteString(m.styles.Dim.Render("/ Filter by ID..."))
	}
	b.WriteString("\n")

	items := m.items.Items()
	rows := make([]views.Row, 0, m.rows())
	for i, it := range items {
		style := m.styles.Item
		if m.focused && i == m.window.Cursor {
			style = m.styles.Cursor
		}
		rows = append(rows, views.Row{Text: fmt.Sprintf("Select ID: %d", it.ID), Style: style})
	}
	if m.items.HasMore() {
		style := m.styles.Loading
		if m.focused && m.window.Cursor == len(items) {
			style = style.Inherit(m.styles.Cursor)
		}
		rows = append(rows, views.Row{Text: "Loading…", Style: style})
	}
	b.WriteString(views.RenderRows(m.window, rows, m.width))
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) footer() string {
	if err := m.items.Err(); err != nil {
		return m.styles.Error.Render("Load failed, press r to retry")
	}
	if total, known := m.items.Total(); known && !m.items.HasMore() {
		return m.styles.Footer.Render(fmt.Sprintf("Loaded %d of %d", m.items.Len(), total))
	}
	return ""
}
