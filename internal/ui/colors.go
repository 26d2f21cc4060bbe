package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	focused  lipgloss.Style // row under the keyboard cursor
	selected lipgloss.Style // sidebar source being shown
	playing  lipgloss.Style
	active   lipgloss.Style // border of the panel receiving keys
	inactive lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		focused:  lipgloss.NewStyle().Reverse(true),
		selected: NewBold(t),
		playing:  NewStyle(s),
		active:   border.BorderForeground(lipgloss.Color(t)),
		inactive: border.BorderForeground(lipgloss.Color(h)),
	}
}

// panel returns the border style for a panel depending on whether it owns key input.
func (p *Palette) panel(active bool) lipgloss.Style {
	if active {
		return p.active
	}
	return p.inactive
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
