package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/playdeck/internal/focus"
)

// keyMap defines the player [key.Binding]s. Row navigation keys belong to the [focus.Navigator].
type keyMap struct {
	nav      focus.KeyMap
	next     key.Binding
	prev     key.Binding
	shuffle  key.Binding
	favorite key.Binding
	mute     key.Binding
	louder   key.Binding
	quieter  key.Binding
	forward  key.Binding
	rewind   key.Binding
	add      key.Binding
	create   key.Binding
	rename   key.Binding
	remove   key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap(nav focus.KeyMap) keyMap {
	return keyMap{
		nav:      nav,
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		louder:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		quieter:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		forward:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5s")),
		rewind:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5s")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		create:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new playlist")),
		rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nav.Select, k.nav.Search, k.next, k.prev, k.shuffle, k.favorite, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nav.Up, k.nav.Down, k.nav.Left, k.nav.Right, k.nav.Select, k.nav.Search},
		{k.next, k.prev, k.shuffle, k.favorite},
		{k.mute, k.louder, k.quieter, k.forward, k.rewind},
		{k.add, k.create, k.rename, k.remove},
		{k.back, k.quit},
	}
}
