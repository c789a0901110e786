// Package keys holds the key bindings shared by the panes.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the dual-list TUI.
type KeyMap struct {
	// List navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Available pane
	Select key.Binding
	Filter key.Binding
	Reload key.Binding

	// Selected pane. Pick starts a drag, Drop finishes it.
	Pick     key.Binding
	Drop     key.Binding
	MoveUp   key.Binding // drop the current item onto the one above
	MoveDown key.Binding

	// Leaves filter mode or cancels a drag
	Back key.Binding

	// Intake form
	Submit key.Binding

	FocusNext key.Binding
	FocusPrev key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap is the built-in key binding set
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("PgUp", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("PgDn", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Pick: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("Space", "pick up / drop"),
	),
	Drop: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "drop"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("K", "move up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("J", "move down"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "add"),
	),
	FocusNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next pane"),
	),
	FocusPrev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-Tab", "previous pane"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
