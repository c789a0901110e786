// Package selected implements the right pane: the selection in server
// order, loaded incrementally and reorderable by drag and drop.
package selected

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"duallist/internal/domain"
	"duallist/internal/eventbus"
	"duallist/internal/paging"
	"duallist/internal/ui/keys"
	"duallist/internal/ui/notice"
	"duallist/internal/ui/views"
)

// Source names this pane's collection in paging.PageMsg
const Source = "selected"

// API is the part of the item service this pane uses
type API interface {
	ListSelected(ctx context.Context, req domain.PageRequest) (domain.Page, error)
	Reorder(ctx context.Context, newOrder []int) error
}

// RefreshMsg is posted when the selection changed elsewhere
type RefreshMsg struct{}

// ReorderResult is the outcome of submitting a local reorder. The local
// order has already been applied when it arrives.
type ReorderResult struct {
	Order []int
	Err   error
}

// Options tunes the pane
type Options struct {
	Limit int
	// NotifyReorderApplied emits reorderApplied after a reorder is saved
	NotifyReorderApplied bool
}

type query struct{}

// Model is the selected items pane
type Model struct {
	ctx  context.Context
	api  API
	bus  eventbus.EventBus
	post func(tea.Msg)
	opts Options

	keys   keys.KeyMap
	styles *views.Styles

	items    *paging.Collection[query]
	sentinel *paging.Sentinel
	window   views.ListWindow
	width    int
	focused  bool

	carrying bool
	carried  int

	unmount []func()
}

// New creates the pane
func New(ctx context.Context, api API, bus eventbus.EventBus, post func(tea.Msg), opts Options) *Model {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	m := &Model{
		ctx:      ctx,
		api:      api,
		bus:      bus,
		post:     post,
		opts:     opts,
		keys:     keys.DefaultKeyMap,
		styles:   views.NewStyles(),
		sentinel: paging.NewSentinel(),
		window:   views.ListWindow{Height: 10},
	}
	m.items = paging.New(Source, opts.Limit, m.fetch, paging.Dedupe).WithContext(ctx)
	return m
}

func (m *Model) fetch(ctx context.Context, _ query, offset, limit int) (domain.Page, error) {
	return m.api.ListSelected(ctx, domain.PageRequest{Offset: offset, Limit: limit})
}

// Mount subscribes to selection changes, attaches the sentinel and loads
// the first page.
func (m *Model) Mount() tea.Cmd {
	m.unmount = append(m.unmount,
		m.bus.Subscribe(eventbus.SelectionChanged, func() { m.post(RefreshMsg{}) }),
		m.items.ObserveSentinel(m.sentinel),
	)
	return m.items.Reset(query{})
}

// Unmount detaches everything Mount attached
func (m *Model) Unmount() {
	for _, fn := range m.unmount {
		fn()
	}
	m.unmount = nil
}

func (m *Model) reset() tea.Cmd {
	m.carrying = false
	m.window.Top()
	return m.items.Reset(query{})
}

// HandleDrop applies a finished drag. The move is applied locally first
// and the full order is then submitted; nothing happens unless both ids
// are loaded and differ.
func (m *Model) HandleDrop(ev domain.DropEvent) tea.Cmd {
	if !ev.HasOver || ev.Active == ev.Over {
		return nil
	}
	items := m.items.Items()
	from, to := indexOf(items, ev.Active), indexOf(items, ev.Over)
	if from < 0 || to < 0 {
		return nil
	}

	next := Move(items, from, to)
	m.items.SetItems(next)
	return m.commit(domain.IDs(next))
}

// commit submits order to the store
func (m *Model) commit(order []int) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		return ReorderResult{Order: order, Err: api.Reorder(ctx, order)}
	}
}

func (m *Model) handleReorderResult(msg ReorderResult) tea.Cmd {
	if msg.Err != nil {
		log.Printf("Reorder of %d items failed: %v", len(msg.Order), msg.Err)
		return notice.Show(notice.Error, "Reorder failed", "The new order was not saved.")
	}
	if m.opts.NotifyReorderApplied {
		m.bus.Emit(eventbus.ReorderApplied)
	}
	return nil
}

// Move returns a copy of items with the element at from moved to index to
func Move(items []domain.Item, from, to int) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out, domain.Item{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

func indexOf(items []domain.Item, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Update handles pane messages. Key messages are only handled while focused.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case paging.PageMsg:
		return m.applyPage(msg)

	case RefreshMsg:
		return m.reset()

	case ReorderResult:
		return m.handleReorderResult(msg)

	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		return m.handleKey(msg)
	}
	return nil
}

func (m *Model) applyPage(msg paging.PageMsg) tea.Cmd {
	before := m.items.Len()
	if !m.items.Apply(msg) {
		return nil
	}
	if msg.Err != nil {
		log.Printf("Selected items: load at offset %d failed: %v", msg.Offset, msg.Err)
		return nil
	}
	m.window.Clamp(m.rows())
	if m.items.Len() > before {
		return m.checkSentinel()
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	rows := m.rows()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.carrying = false
		return nil
	case key.Matches(msg, m.keys.Pick):
		if m.carrying {
			return m.drop()
		}
		if it, ok := m.Current(); ok {
			m.carrying = true
			m.carried = it.ID
		}
		return nil
	case key.Matches(msg, m.keys.Drop):
		if m.carrying {
			return m.drop()
		}
		return nil
	case key.Matches(msg, m.keys.MoveUp):
		return m.nudge(-1)
	case key.Matches(msg, m.keys.MoveDown):
		return m.nudge(1)
	case key.Matches(msg, m.keys.Reload):
		return m.reset()
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

// drop releases the carried item onto the item under the cursor
func (m *Model) drop() tea.Cmd {
	m.carrying = false
	over, ok := m.Current()
	cmd := m.HandleDrop(domain.DropEvent{Active: m.carried, Over: over.ID, HasOver: ok})
	m.follow(m.carried)
	return cmd
}

// nudge swaps the current item with its neighbour in direction dir
func (m *Model) nudge(dir int) tea.Cmd {
	items := m.items.Items()
	i := m.window.Cursor
	j := i + dir
	if i < 0 || i >= len(items) || j < 0 || j >= len(items) {
		return nil
	}
	id := items[i].ID
	cmd := m.HandleDrop(domain.DropEvent{Active: id, Over: items[j].ID, HasOver: true})
	m.follow(id)
	return cmd
}

// follow puts the cursor on id
func (m *Model) follow(id int) {
	if i := indexOf(m.items.Items(), id); i >= 0 {
		m.window.Cursor = i
		m.window.Clamp(m.rows())
	}
}

func (m *Model) checkSentinel() tea.Cmd {
	if m.items.HasMore() && m.window.Visible(m.items.Len()) {
		return m.sentinel.Intersect()
	}
	return nil
}

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
	// title, counter and error lines
	m.window.SetHeight(height-3, m.rows())
	return m.checkSentinel()
}

func (m *Model) Focus() { m.focused = true }

func (m *Model) Blur() {
	m.focused = false
	m.carrying = false
}

func (m *Model) Focused() bool { return m.focused }

// Carrying returns the id being dragged, if any
func (m *Model) Carrying() (int, bool) { return m.carried, m.carrying }

func (m *Model) Items() []domain.Item { return m.items.Items() }

func (m *Model) Loading() bool { return m.items.Loading() }

func (m *Model) Window() views.ListWindow { return m.window }

// View renders the pane content
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.PaneTitle.Render("Selected"))
	b.WriteString("\n")
	total, _ := m.items.Total()
	b.WriteString(m.styles.Footer.Render(fmt.Sprintf("Loaded %d of %d", m.items.Len(), total)))
	b.WriteString("\n")

	items := m.items.Items()
	rows := make([]views.Row, 0, m.rows())
	for i, it := range items {
		text := fmt.Sprintf("ID: %d", it.ID)
		style := m.styles.Item
		onCursor := m.focused && i == m.window.Cursor
		switch {
		case m.carrying && it.ID == m.carried:
			text = "≡ " + text
			style = m.styles.Carried
			if onCursor {
				style = style.Inherit(m.styles.Cursor)
			}
		case m.carrying && onCursor:
			style = m.styles.DropTarget
		case onCursor:
			style = m.styles.Cursor
		}
		rows = append(rows, views.Row{Text: text, Style: style})
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
	if m.items.Err() != nil {
		b.WriteString(m.styles.Error.Render("Load failed, press r to retry"))
	}
	return b.String()
}
