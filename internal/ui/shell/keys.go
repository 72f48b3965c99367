// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the shell's keyboard bindings. Global bindings work while
// the input bar has focus; the rest only when it does not.
type KeyMap struct {
	// Global
	NextTab key.Binding
	PrevTab key.Binding
	Back    key.Binding
	Retry   key.Binding
	Dismiss key.Binding
	Quit    key.Binding
	PageUp  key.Binding
	PageDn  key.Binding

	// Input bar
	Submit key.Binding
	Blur   key.Binding

	// Unfocused only
	Focus    key.Binding
	Jump     key.Binding
	Help     key.Binding
	QuitQ    key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-tab", "prev view")),
		Back:    key.NewBinding(key.WithKeys("ctrl+b", "alt+left"), key.WithHelp("C-b", "back")),
		Retry:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "reload")),
		Dismiss: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("C-x", "dismiss")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
		PageUp:  key.NewBinding(key.WithKeys("pgup"), key.WithHelp("PgUp", "page up")),
		PageDn:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("PgDn", "page down")),

		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "send")),
		Blur:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "leave input")),

		Focus:    key.NewBinding(key.WithKeys("i", "/", "enter"), key.WithHelp("i", "type")),
		Jump:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "jump")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		QuitQ:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ScrollUp: key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "scroll up")),
		ScrollDn: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "scroll down")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Back, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Jump, k.Back, k.Retry},
		{k.Focus, k.Submit, k.Blur, k.Dismiss},
		{k.ScrollUp, k.ScrollDn, k.PageUp, k.PageDn, k.Quit},
	}
}
