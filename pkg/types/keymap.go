package types

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the terminal widget.
// It lives in pkg/types so the model and the help view share it.
type KeyMap struct {
	// General
	Help key.Binding
	Quit key.Binding

	// Focus
	NextFocus key.Binding
	PrevFocus key.Binding
	Search    key.Binding // Jump to the search box
	Cancel    key.Binding // Leave an input or close the picker

	// Entries
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Retry    key.Binding
	Remove   key.Binding
	ClearAll key.Binding

	// Drop zone and inputs
	Browse key.Binding // Open the file picker
	Submit key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		NextFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		PrevFocus: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Remove:   key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "remove")),
		ClearAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear all")),

		Browse: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "browse")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.Browse, k.Retry, k.Remove, k.Search, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextFocus, k.PrevFocus, k.Search, k.Cancel},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Retry, k.Remove, k.ClearAll},
		{k.Browse, k.Submit, k.Help, k.Quit},
	}
}
