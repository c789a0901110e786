package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	PaneTitle   lipgloss.Style
	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	Item        lipgloss.Style
	Dim         lipgloss.Style
	Help        lipgloss.Style
	Filter      lipgloss.Style
	Cursor      lipgloss.Style
	Carried     lipgloss.Style
	DropTarget  lipgloss.Style
	Loading     lipgloss.Style
	Error       lipgloss.Style
	Footer      lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		PaneTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		PaneFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		Item:       lipgloss.NewStyle(),
		Dim:        lipgloss.NewStyle().Faint(true),
		Help:       lipgloss.NewStyle().Faint(true),
		Filter:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Cursor:     lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Carried:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		DropTarget: lipgloss.NewStyle().Background(lipgloss.Color("24")),
		Loading:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Footer:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	}
}
