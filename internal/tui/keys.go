package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Tab     key.Binding
	Back    key.Binding
	New     key.Binding
	Refresh key.Binding
	Logout  key.Binding
	Quit    key.Binding
	// ForceQuit works while a text input has focus
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "birth new agent"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Tab},
		{k.New, k.Refresh, k.Logout, k.Back, k.Quit},
	}
}

// ScreenHelpText returns the footer hint for a screen
func ScreenHelpText(screen Screen) string {
	switch screen {
	case ScreenDashboard:
		return RenderKeyHelp("↑↓", "select") + "  " + RenderKeyHelp("enter", "chat") + "  " +
			RenderKeyHelp("n", "birth") + "  " + RenderKeyHelp("r", "refresh") + "  " + RenderKeyHelp("L", "log out") + "  " + RenderKeyHelp("q", "quit")
	case ScreenBirth:
		return RenderKeyHelp("enter", "continue") + "  " + RenderKeyHelp("esc", "back")
	case ScreenChat:
		return RenderKeyHelp("enter", "send") + "  " + RenderKeyHelp("esc", "agents") + "  " + RenderKeyHelp("ctrl+c", "quit")
	default:
		return RenderKeyHelp("q", "quit")
	}
}
