package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the application
type KeyMap struct {
	Quit  key.Binding
	Back  key.Binding
	Tab   key.Binding
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Save  key.Binding

	// Row actions
	Edit   key.Binding
	Delete key.Binding

	// Toolbar
	New    key.Binding
	Reload key.Binding
	Reset  key.Binding

	// Filters
	Platform key.Binding
	Hidden   key.Binding

	// Pager
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding

	// Forms
	Toggle   key.Binding
	Generate key.Binding

	Help key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
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
			key.WithHelp("↵", "view"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new bot"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reload"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset filters"),
		),
		Platform: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "platform"),
		),
		Hidden: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hidden"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "pgdown"),
			key.WithHelp("→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "pgup"),
			key.WithHelp("←", "prev page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last page"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Generate: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "generate password"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp implements help.KeyMap for the task list footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Edit, k.Delete, k.New, k.Platform, k.Hidden, k.Reload, k.Quit}
}

// FullHelp implements help.KeyMap for the help popup
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Edit, k.Delete},
		{k.New, k.Reload, k.Reset, k.Platform, k.Hidden},
		{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage},
		{k.Back, k.Help, k.Quit},
	}
}
