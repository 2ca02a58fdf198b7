package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Keys the list uses for paging (h, l, b, f, u, d) are left to the list.
type keyMap struct {
	play      key.Binding
	pause     key.Binding
	next      key.Binding
	prev      key.Binding
	volUp     key.Binding
	volDown   key.Binding
	search    key.Binding
	more      key.Binding
	selectOne key.Binding
	clear     key.Binding
	recommend key.Binding
	magic     key.Binding
	history   key.Binding
	kind      key.Binding
	wipe      key.Binding
	back      key.Binding
	submit    key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		play:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		pause:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:      key.NewBinding(key.WithKeys("n", ">"), key.WithHelp("n", "next")),
		prev:      key.NewBinding(key.WithKeys("p", "<"), key.WithHelp("p", "previous")),
		volUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		more:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "load more")),
		selectOne: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select")),
		clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear selection")),
		recommend: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recommend")),
		magic:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "magic mode")),
		history:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "history")),
		kind:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "filter kind")),
		wipe:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "clear history")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.pause, k.search, k.selectOne, k.recommend, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.play, k.pause, k.next, k.prev},
		{k.volUp, k.volDown, k.more},
		{k.search, k.magic, k.selectOne, k.clear, k.recommend},
		{k.history, k.help, k.quit},
	}
}
