package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Colors names the hex colors of a [Palette].
type Colors struct {
	Title, OK, Err, Warn, Help string
}

// DefaultColors is the palette used by the CLI.
var DefaultColors = Colors{Title: "#FF5500", OK: "#04B575", Err: "#FF0000", Warn: "#FFA500", Help: "#626262"}

var styles = NewPalette(DefaultColors)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(c Colors) *Palette {
	return &Palette{
		title: NewBold(c.Title).MarginBottom(1),
		ok:    NewBold(c.OK),
		err:   NewBold(c.Err),
		warn:  NewStyle(c.Warn),
		help:  NewEm(c.Help),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Score renders a similarity score: OK at or above threshold, a warning when it is at least
// half the threshold, an error below that.
func (p *Palette) Score(score, threshold float64) string {
	text := fmt.Sprintf("%.3f", score)
	switch {
	case score >= threshold:
		return p.OK(text)
	case score >= threshold/2:
		return p.Warn(text)
	default:
		return p.Err(text)
	}
}

// Styles returns the default palette.
func Styles() *Palette { return styles }

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
