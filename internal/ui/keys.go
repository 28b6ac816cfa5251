package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Lock    key.Binding
	Details key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "move left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "move right")),
		Lock:    key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "lock/unlock")),
		Details: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Lock, k.Details, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Lock, k.Details, k.Quit},
	}
}
