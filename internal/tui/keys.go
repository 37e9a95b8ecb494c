package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Add     key.Binding
	Remove  key.Binding
	Merge   key.Binding
	Clear   key.Binding
	Drop    key.Binding
	Dismiss key.Binding
	Quit    key.Binding

	Yes    key.Binding
	No     key.Binding
	Submit key.Binding
	Cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Remove:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Merge:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Drop:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drop folder")),
		Dismiss: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "dismiss toast")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:     key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// mainBindings are shown in the footer. Drop is listed only when a drop
// folder is configured.
func (k keyMap) mainBindings(withDrop bool) []key.Binding {
	b := []key.Binding{k.Up, k.Down, k.Add, k.Remove, k.Merge, k.Clear}
	if withDrop {
		b = append(b, k.Drop)
	}
	return append(b, k.Dismiss, k.Quit)
}
