package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open     key.Binding
	Monitor  key.Binding
	Clear    key.Binding
	Cancel   key.Binding
	Search   key.Binding
	Level    key.Binding
	Sort     key.Binding
	Reverse  key.Binding
	Copy     key.Binding
	Tab      key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	AppLogs  key.Binding
	Theme    key.Binding
	Help     key.Binding
	Quit     key.Binding

	Confirm key.Binding
	Back    key.Binding
	Yes     key.Binding
	No      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
		Monitor:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle monitoring")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear logs")),
		Cancel:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel loading")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Level:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "level filter")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort field")),
		Reverse:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reverse order")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy visible")),
		Tab:      key.NewBinding(key.WithKeys("t", "tab"), key.WithHelp("t", "live/sorted")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		AppLogs:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "app logs")),
		Theme:    key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Yes:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:      key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Monitor, k.Clear, k.Search, k.Level, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Monitor, k.Clear, k.Cancel},
		{k.Search, k.Level, k.Sort, k.Reverse, k.Tab},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Copy, k.AppLogs, k.Theme, k.Help, k.Quit},
	}
}
