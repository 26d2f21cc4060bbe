// Package focus tracks which panel owns directional key input and moves row focus within it.
//
// Panels register a [Container] once. The navigator asks the container for its rows on every
// key event, so rows inserted or removed between presses are always seen.
package focus

import (
	"slices"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Panel identifies a logical region of the interface.
type Panel int

const (
	Sidebar Panel = iota
	Tracklist
)

func (p Panel) String() string {
	switch p {
	case Sidebar:
		return "sidebar"
	case Tracklist:
		return "tracklist"
	default:
		return "unknown"
	}
}

// Container lists the keyboard-focusable rows of a panel, in display order.
type Container interface {
	FocusableRows() []string
}

// ContainerFunc adapts a function to [Container].
type ContainerFunc func() []string

func (f ContainerFunc) FocusableRows() []string { return f() }

type registration struct {
	container Container
	onSelect  func(row string)
}

// Navigator is the panel state machine. It is safe for concurrent use.
type Navigator struct {
	keys KeyMap

	mu       sync.Mutex
	active   Panel
	panels   map[Panel]registration
	focused  string
	hasFocus bool
	onToggle func()
	onSearch func()
}

// New creates a navigator with [Sidebar] active and nothing focused.
func New() *Navigator {
	return &Navigator{
		keys:   DefaultKeyMap(),
		active: Sidebar,
		panels: make(map[Panel]registration),
	}
}

// Keys returns the bindings the navigator responds to, for help rendering.
func (n *Navigator) Keys() KeyMap { return n.keys }

// Register binds a container and its select callback to panel. Later calls for the same
// panel are ignored.
func (n *Navigator) Register(panel Panel, c Container, onSelect func(row string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.panels[panel]; ok || c == nil {
		return
	}
	n.panels[panel] = registration{container: c, onSelect: onSelect}
}

// OnTogglePlay sets the callback for space pressed with no row focused.
func (n *Navigator) OnTogglePlay(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onToggle = fn
}

// OnSearch sets the callback for "/".
func (n *Navigator) OnSearch(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onSearch = fn
}

// Active returns the panel receiving directional keys.
func (n *Navigator) Active() Panel {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// SetActive switches the active panel without moving row focus.
func (n *Navigator) SetActive(panel Panel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.panels[panel]; !ok {
		return
	}
	n.active = panel
}

// Focused returns the focused row, if any.
func (n *Navigator) Focused() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focused, n.hasFocus
}

// Focus activates panel and focuses row when the panel currently lists it.
func (n *Navigator) Focus(panel Panel, row string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	reg, ok := n.panels[panel]
	if !ok || !slices.Contains(reg.container.FocusableRows(), row) {
		return false
	}
	n.active = panel
	n.focusLocked(row)
	return true
}

// Blur clears row focus.
func (n *Navigator) Blur() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blurLocked()
}

// HandleKey applies msg and reports whether the navigator consumed it.
//
// Callbacks run after the navigator's lock is released, so they may call back into it.
func (n *Navigator) HandleKey(msg tea.KeyMsg) bool {
	var (
		handled bool
		cb      func()
	)

	n.mu.Lock()
	switch {
	case key.Matches(msg, n.keys.Down):
		handled = n.stepLocked(1)
	case key.Matches(msg, n.keys.Up):
		handled = n.stepLocked(-1)
	case key.Matches(msg, n.keys.Left):
		handled = n.switchLocked(Tracklist, Sidebar)
	case key.Matches(msg, n.keys.Right):
		handled = n.switchLocked(Sidebar, Tracklist)
	case key.Matches(msg, n.keys.Search):
		n.blurLocked()
		cb, handled = n.onSearch, true
	case key.Matches(msg, n.keys.Select):
		cb, handled = n.selectLocked(msg.String() == " ")
	}
	n.mu.Unlock()

	if cb != nil {
		cb()
	}
	return handled
}

// stepLocked moves focus by delta within the active panel, wrapping at both ends.
// With no row of the panel focused, down lands on the first row and up on the last.
func (n *Navigator) stepLocked(delta int) bool {
	reg, ok := n.panels[n.active]
	if !ok {
		return false
	}
	rows := reg.container.FocusableRows()
	if len(rows) == 0 {
		return false
	}

	i := -1
	if n.hasFocus {
		i = slices.Index(rows, n.focused)
	}

	var next int
	switch {
	case i < 0 && delta > 0:
		next = 0
	case i < 0:
		next = len(rows) - 1
	default:
		next = ((i+delta)%len(rows) + len(rows)) % len(rows)
	}
	n.focusLocked(rows[next])
	return true
}

func (n *Navigator) switchLocked(from, to Panel) bool {
	if n.active != from {
		return false
	}
	reg, ok := n.panels[to]
	if !ok {
		return false
	}

	n.active = to
	if rows := reg.container.FocusableRows(); len(rows) > 0 {
		n.focusLocked(rows[0])
	} else {
		n.blurLocked()
	}
	return true
}

// selectLocked resolves enter and space. The callback belongs to the panel whose
// container still lists the focused row.
func (n *Navigator) selectLocked(space bool) (func(), bool) {
	if n.hasFocus {
		for _, p := range []Panel{n.active, other(n.active)} {
			reg, ok := n.panels[p]
			if !ok || !slices.Contains(reg.container.FocusableRows(), n.focused) {
				continue
			}
			if reg.onSelect == nil {
				return nil, true
			}
			row, fn := n.focused, reg.onSelect
			return func() { fn(row) }, true
		}
		n.blurLocked()
	}

	if space && n.onToggle != nil {
		return n.onToggle, true
	}
	return nil, false
}

func (n *Navigator) focusLocked(row string) {
	n.focused, n.hasFocus = row, true
}

func (n *Navigator) blurLocked() {
	n.focused, n.hasFocus = "", false
}

func other(p Panel) Panel {
	if p == Sidebar {
		return Tracklist
	}
	return Sidebar
}
