package paging

import tea "github.com/charmbracelet/bubbletea"

// Sentinel is the marker rendered after the last loaded item. The view
// that renders it calls Intersect whenever the marker is inside the
// visible window; the observing collection decides whether to load.
type Sentinel struct {
	token    uint64
	observer func() tea.Cmd
}

// NewSentinel creates an unobserved sentinel
func NewSentinel() *Sentinel {
	return &Sentinel{}
}

func (s *Sentinel) observe(fn func() tea.Cmd) func() {
	s.token++
	token := s.token
	s.observer = fn
	return func() {
		// a later observe owns the sentinel now
		if s.token == token {
			s.observer = nil
		}
	}
}

// Intersect signals that the sentinel is visible. Returns the load
// command, or nil when unobserved or nothing needs loading.
func (s *Sentinel) Intersect() tea.Cmd {
	if s.observer == nil {
		return nil
	}
	return s.observer()
}

// Observed reports whether a collection is attached
func (s *Sentinel) Observed() bool {
	return s.observer != nil
}
