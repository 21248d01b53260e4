package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
)

type keyMap struct {
	Send      key.Binding
	Cancel    key.Binding
	Quit      key.Binding
	Copy      key.Binding
	Export    key.Binding
	ChatUp    key.Binding
	ChatDown  key.Binding
	CellsUp   key.Binding
	CellsDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/quit")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy reply")),
		Export:    key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
		ChatUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "chat")),
		ChatDown:  key.NewBinding(key.WithKeys("down")),
		CellsUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "cells")),
		CellsDown: key.NewBinding(key.WithKeys("pgdown")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Cancel, k.ChatUp, k.CellsUp, k.Copy, k.Export}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Quit}}
}

// chatViewportKeys limits the chat log to arrow scrolling so typing never
// moves it
func chatViewportKeys(k keyMap) viewport.KeyMap {
	return viewport.KeyMap{Up: k.ChatUp, Down: k.ChatDown}
}

// cellsViewportKeys scrolls the cells panel a page at a time
func cellsViewportKeys(k keyMap) viewport.KeyMap {
	return viewport.KeyMap{PageUp: k.CellsUp, PageDown: k.CellsDown}
}
