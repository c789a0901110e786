package ui

import (
	"context"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"duallist/internal/clock"
	"duallist/internal/config"
	"duallist/internal/eventbus"
	"duallist/internal/paging"
	"duallist/internal/ui/available"
	"duallist/internal/ui/intake"
	"duallist/internal/ui/keys"
	"duallist/internal/ui/notice"
	"duallist/internal/ui/selected"
	"duallist/internal/ui/views"
)

// API is everything the panes need from the item service
type API interface {
	available.API
	selected.API
	intake.API
}

// Focus identifies the pane receiving keys
type Focus int

const (
	FocusAvailable Focus = iota
	FocusSelected
	FocusIntake
	focusCount
)

// Lines outside the two panes: title with margin, intake form, notices, help
const (
	noticeLines   = 3
	reservedLines = 2 + 1 + noticeLines + 1
)

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	config *config.Config

	available *available.Model
	selected  *selected.Model
	intake    *intake.Model
	notices   *notice.Stack

	focus  Focus
	width  int
	height int

	keys         keys.KeyMap
	styles       *views.Styles
	help         help.Model
	helpRenderer *HelpRenderer
	inPagerMode  bool // tracks if we're currently in pager mode

	// Program reference for terminal management
	program *tea.Program
	helpOps *HelpOps
}

// NewModel creates a new UI model. post must deliver messages into the
// running program; bus subscribers and timers use it.
func NewModel(ctx context.Context, bus eventbus.EventBus, cfg *config.Config, api API, clk clock.Clock, post func(tea.Msg)) *Model {
	m := &Model{
		bus:    bus,
		config: cfg,
		available: available.New(ctx, api, bus, clk, post, available.Options{
			Limit:          cfg.Paging.Limit,
			BroadcastDelay: cfg.Delays.SelectBroadcast.Std(),
		}),
		selected: selected.New(ctx, api, bus, post, selected.Options{
			Limit:                cfg.Paging.Limit,
			NotifyReorderApplied: cfg.UI.NotifyReorderApplied,
		}),
		intake: intake.New(ctx, api, bus, clk, post, intake.Options{
			BroadcastDelay: cfg.Delays.IntakeBroadcast.Std(),
		}),
		notices:      notice.NewStack(cfg.UI.NoticeTTL.Std(), noticeLines),
		keys:         keys.DefaultKeyMap,
		styles:       views.NewStyles(),
		help:         help.New(),
		helpRenderer: NewHelpRenderer(keys.DefaultKeyMap),
	}
	m.available.Focus()
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.helpOps = NewHelpOps(p)
}

// Init mounts both lists
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.available.Mount(), m.selected.Mount())
}

// Close unmounts the panes. Broadcasts already scheduled still fire.
func (m *Model) Close() {
	m.available.Unmount()
	m.selected.Unmount()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, m.layout()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case paging.PageMsg:
		switch msg.Source {
		case available.Source:
			return m, m.available.Update(msg)
		case selected.Source:
			return m, m.selected.Update(msg)
		}
		log.Printf("Dropping page for unknown source %q", msg.Source)
		return m, nil

	case available.SelectResult, available.RefreshMsg:
		return m, m.available.Update(msg)

	case selected.ReorderResult, selected.RefreshMsg:
		return m, m.selected.Update(msg)

	case intake.AddResult, intake.UpdatedMsg:
		return m, m.intake.Update(msg)

	case helpPagerMsg:
		if msg.err != nil {
			// Pager failed: log only; do not surface in status bar
			log.Printf("Help pager failed: %v", msg.err)
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, nil
	}

	if cmd, handled := m.notices.Update(msg); handled {
		return m, cmd
	}

	// cursor blinks and other messages for the text inputs
	return m, m.focusedUpdate(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	if !m.editing() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit
		case key.Matches(msg, m.keys.Help):
			return m.fetchHelpPager(m.helpRenderer.RenderHelpContent())
		}
	}

	switch {
	case key.Matches(msg, m.keys.FocusNext):
		return m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, m.keys.FocusPrev):
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	case m.focus == FocusIntake && key.Matches(msg, m.keys.Back):
		return m.setFocus(FocusAvailable)
	}

	return m.focusedUpdate(msg)
}

func (m *Model) focusedUpdate(msg tea.Msg) tea.Cmd {
	switch m.focus {
	case FocusSelected:
		return m.selected.Update(msg)
	case FocusIntake:
		return m.intake.Update(msg)
	default:
		return m.available.Update(msg)
	}
}

// editing reports whether a text input has the keyboard
func (m *Model) editing() bool {
	switch m.focus {
	case FocusIntake:
		return m.intake.Focused()
	case FocusAvailable:
		return m.available.Editing()
	}
	return false
}

func (m *Model) setFocus(f Focus) tea.Cmd {
	m.available.Blur()
	m.selected.Blur()
	m.intake.Blur()

	m.focus = f
	switch f {
	case FocusSelected:
		m.selected.Focus()
	case FocusIntake:
		return m.intake.Focus()
	default:
		m.available.Focus()
	}
	return nil
}

// Focused returns the pane receiving keys
func (m *Model) Focused() Focus { return m.focus }

// paneSize returns the outer width of one pane and the content size inside it
func (m *Model) paneSize() (outer, innerW, innerH int) {
	outer = max(14, m.width/2)
	// border and padding
	innerW = outer - 4
	innerH = max(4, m.height-reservedLines-2)
	return outer, innerW, innerH
}

func (m *Model) layout() tea.Cmd {
	_, innerW, innerH := m.paneSize()
	m.intake.SetWidth(m.width)
	return tea.Batch(
		m.available.SetSize(innerW, innerH),
		m.selected.SetSize(innerW, innerH),
	)
}

// fetchHelpPager returns a command that shows help using ov pager
func (m *Model) fetchHelpPager(helpContent string) tea.Cmd {
	if m.program == nil {
		log.Printf("Help pager unavailable: program not set")
		return nil
	}
	return func() tea.Msg {
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})

		err := m.helpOps.ShowHelpInPager(helpContent)

		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})

		return helpPagerMsg{err: err}
	}
}

func (m *Model) shortHelp() []key.Binding {
	k := m.keys
	switch m.focus {
	case FocusSelected:
		return []key.Binding{k.Up, k.Down, k.Pick, k.MoveUp, k.MoveDown, k.FocusNext, k.Help, k.Quit}
	case FocusIntake:
		return []key.Binding{k.Submit, k.Back, k.FocusNext}
	default:
		if m.available.Editing() {
			return []key.Binding{k.Back, k.FocusNext}
		}
		return []key.Binding{k.Up, k.Down, k.Select, k.Filter, k.Reload, k.FocusNext, k.Help, k.Quit}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	title := "Dual List"
	if m.available.Loading() || m.selected.Loading() {
		title += m.styles.Loading.Render("  ⟳ syncing")
	}

	outer, _, innerH := m.paneSize()
	pane := func(f Focus, content string) string {
		style := m.styles.Pane
		if m.focus == f {
			style = m.styles.PaneFocused
		}
		return style.Width(outer - 2).Height(innerH).Render(content)
	}

	// always noticeLines tall
	notices := make([]string, noticeLines)
	if m.notices.Len() > 0 {
		copy(notices, strings.Split(m.notices.View(), "\n"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render(title),
		m.intake.View(),
		lipgloss.JoinHorizontal(lipgloss.Top,
			pane(FocusAvailable, m.available.View()),
			pane(FocusSelected, m.selected.View()),
		),
		strings.Join(notices, "\n"),
		m.styles.Help.Render(m.help.ShortHelpView(m.shortHelp())),
	)
}
