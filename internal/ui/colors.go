package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ztx/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// status renders a task status in the color of its stage.
func (p *Palette) status(s models.TaskStatus) string {
	switch {
	case s == models.StatusCompleted:
		return p.ok.Render(s.Label())
	case s.Done():
		return p.help.Render(s.Label())
	case s == models.StatusInProgress || s == models.StatusReadyForReview:
		return p.warn.Render(s.Label())
	}
	return s.Label()
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
