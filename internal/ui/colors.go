package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Spotify green for the title, muted grey for the help line.
var styles = NewPalette("#1DB954", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		help:  NewEm(h),
	}
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
