// Package notice implements the toast-like status stack shown at the
// bottom of the screen.
package notice

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Level selects the colour of a notice
type Level int

const (
	Info Level = iota
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is one user-visible message
type Notice struct {
	Level Level
	Title string
	Body  string
}

// Msg asks the top-level model to raise a notice
type Msg struct {
	Notice Notice
}

// Show returns a command that raises a notice
func Show(level Level, title, body string) tea.Cmd {
	return func() tea.Msg {
		return Msg{Notice: Notice{Level: level, Title: title, Body: body}}
	}
}

// expireMsg removes the notice with the given id
type expireMsg struct {
	id uint64
}

type entry struct {
	id     uint64
	notice Notice
}

// Stack holds the visible notices, newest last
type Stack struct {
	ttl     time.Duration
	max     int
	nextID  uint64
	entries []entry
}

// NewStack creates a stack whose notices expire after ttl. At most max
// notices are kept; the oldest is dropped first.
func NewStack(ttl time.Duration, max int) *Stack {
	if max <= 0 {
		max = 3
	}
	return &Stack{ttl: ttl, max: max}
}

// Push adds n and returns the tick that expires it
func (s *Stack) Push(n Notice) tea.Cmd {
	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, entry{id: id, notice: n})
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
	if s.ttl <= 0 {
		return nil
	}
	return tea.Tick(s.ttl, func(time.Time) tea.Msg {
		return expireMsg{id: id}
	})
}

// Update handles Msg and expiry ticks. handled is false for any other message.
func (s *Stack) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case Msg:
		return s.Push(msg.Notice), true
	case expireMsg:
		for i, e := range s.entries {
			if e.id == msg.id {
				s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
				break
			}
		}
		return nil, true
	}
	return nil, false
}

// Notices returns the visible notices, oldest first
func (s *Stack) Notices() []Notice {
	out := make([]Notice, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.notice
	}
	return out
}

func (s *Stack) Len() int { return len(s.entries) }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	levelStyles = map[Level]lipgloss.Style{
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),  // blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
	}
)

// View renders one line per notice
func (s *Stack) View() string {
	if len(s.entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		style := levelStyles[e.notice.Level]
		line := titleStyle.Inherit(style).Render(e.notice.Title)
		if e.notice.Body != "" {
			line += " " + style.Render(e.notice.Body)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
