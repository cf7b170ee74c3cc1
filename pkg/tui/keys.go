package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings, run view and review view combined.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	PgUp    key.Binding
	PgDown  key.Binding
	Vars    key.Binding
	Summary key.Binding
	Approve key.Binding
	Reject  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Vars: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "vars"),
	),
	Summary: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "summary"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "approve"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reject"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// keyBarText renders the context-sensitive key hint string for the run view.
func keyBarText(running, completed bool) string {
	if completed {
		return keyStyle.Render("s") + keyDescStyle.Render(":summary") + "  " +
			keyStyle.Render("v") + keyDescStyle.Render(":vars") + "  " +
			keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
			keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	if running {
		return keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
			keyStyle.Render("PgUp/Dn") + keyDescStyle.Render(":scroll") + "  " +
			keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	return keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit")
}

// reviewKeyBarText renders the key hints for the review view.
func reviewKeyBarText(noteOpen bool) string {
	if noteOpen {
		return keyStyle.Render("Enter") + keyDescStyle.Render(":submit") + "  " +
			keyStyle.Render("Esc") + keyDescStyle.Render(":cancel")
	}
	return keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
		keyStyle.Render("a") + keyDescStyle.Render(":approve") + "  " +
		keyStyle.Render("r") + keyDescStyle.Render(":reject") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit")
}
