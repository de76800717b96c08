// ABOUTME: Key bindings for the dashboard, declared with bubbles/key so help text and matching share one source.
package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists every binding the app reacts to.
type KeyMap struct {
	Quit      key.Binding
	Focus     key.Binding
	Up        key.Binding
	Down      key.Binding
	Search    key.Binding
	Next      key.Binding
	Load      key.Binding
	Unload    key.Binding
	TagShow   key.Binding
	TagHide   key.Binding
	TagsReset key.Binding
	Submit    key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Next:      key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next playback step")),
		Load:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open recording")),
		Unload:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "leave playback")),
		TagShow:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "show tag")),
		TagHide:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide tag")),
		TagsReset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset tags")),
		Submit:    key.NewBinding(key.WithKeys("enter")),
		Cancel:    key.NewBinding(key.WithKeys("esc")),
	}
}
