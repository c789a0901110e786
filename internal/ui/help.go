package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"

	"duallist/internal/ui/keys"
)

// helpPagerMsg contains the result of a help pager command
type helpPagerMsg struct {
	err error
}

type helpSection struct {
	title    string
	bindings []key.Binding
}

// HelpRenderer handles help content rendering
type HelpRenderer struct {
	keys keys.KeyMap
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer(km keys.KeyMap) *HelpRenderer {
	return &HelpRenderer{keys: km}
}

func (r *HelpRenderer) sections() []helpSection {
	k := r.keys
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End}},
		{"Panes", []key.Binding{k.FocusNext, k.FocusPrev}},
		{"Available", []key.Binding{k.Select, k.Filter, k.Back, k.Reload}},
		{"Selected", []key.Binding{k.Pick, k.Drop, k.MoveUp, k.MoveDown, k.Back, k.Reload}},
		{"Add new ID", []key.Binding{k.Submit}},
		{"Other", []key.Binding{k.Help, k.Quit}},
	}
}

// RenderHelpContent generates help content with colors for the pager
func (r *HelpRenderer) RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var help strings.Builder

	help.WriteString(titleStyle.Render("Dual List Help"))
	help.WriteString("\n")

	for _, section := range r.sections() {
		help.WriteString(sectionStyle.Render(section.title))
		help.WriteString("\n")
		for _, b := range section.bindings {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(h.Key), descStyle.Render(h.Desc)))
		}
		help.WriteString("\n")
	}

	note := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	help.WriteString(note.Render("  Lists load more items as the loading row scrolls into view."))
	help.WriteString("\n")
	help.WriteString(note.Render("  New ids show up once the store has ingested them."))

	return help.String()
}

// HelpOps handles help operations
type HelpOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewHelpOps creates a new help operations instance
func NewHelpOps(program *tea.Program) *HelpOps {
	return &HelpOps{
		program: program,
	}
}

// ShowHelpInPager shows help content using ov pager
func (h *HelpOps) ShowHelpInPager(helpContent string) error {
	if h.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := h.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = h.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(helpContent))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
