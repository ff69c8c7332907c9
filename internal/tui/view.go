package tui

import (
	"image/color"
	"math"
	"strings"

	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/PixPMusic/gopher-keys/internal/palette"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "255"})
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cc8800"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#880000"))
)

// cell is one terminal character of the keyboard drawing
type cell struct {
	ch rune
	fg color.RGBA
	bg color.RGBA
}

func (m *Model) View() string {
	var buf strings.Builder

	buf.WriteString(titleStyle.Render("Gopher Keys"))
	if m.ctrl.Paused() {
		buf.WriteString("  " + pausedStyle.Render("paused"))
	}
	buf.WriteString("\n\n")

	if m.layout == nil {
		buf.WriteString(strings.Repeat("\n", keyRows))
	} else {
		for _, row := range m.cells() {
			buf.WriteString(renderRow(row))
			buf.WriteString("\n")
		}
	}

	buf.WriteString("\n")
	if m.err != nil {
		buf.WriteString(errorStyle.Render(m.err.Error()))
	} else {
		buf.WriteString(statusStyle.Render(m.status))
	}
	buf.WriteString("\n\n")
	buf.WriteString(m.help.View(keys))
	return buf.String()
}

// cells rasterises the layout, one cell per unit
func (m *Model) cells() [][]cell {
	l := m.layout
	width := int(math.Ceil(l.Width))
	rows := make([][]cell, keyRows)

	for y := range rows {
		row := make([]cell, 0, width)
		for x := 0; x < width; x++ {
			row = append(row, m.cellAt(l, x, y))
		}
		rows[y] = row
	}

	if m.ShowLabels {
		m.label(rows[keyRows-1], l)
	}
	return rows
}

func (m *Model) cellAt(l *layout.Layout, x, y int) cell {
	c := cell{ch: ' ', bg: m.colours.Border}
	k, ok := l.KeyAt(float64(x)+0.5, float64(y)+0.5)
	if !ok {
		return c
	}
	if k.Colour == layout.White && float64(x)+0.5 >= k.Left+k.Width {
		// gap between white keys
		c.ch = '▏'
		c.fg = m.colours.Border
		c.bg = m.keyColour(k)
		return c
	}
	c.bg = m.keyColour(k)
	return c
}

func (m *Model) keyColour(k layout.Key) color.RGBA {
	if m.active[k.NoteID] {
		return m.colours.Active
	}
	return m.colours.Resting(k.Colour)
}

// label writes the note id into the bottom row of every C key
func (m *Model) label(row []cell, l *layout.Layout) {
	for _, k := range l.WhiteKeys() {
		if k.Note.Letter != notes.C {
			continue
		}
		text := []rune(k.NoteID)
		if float64(len(text)) > k.Width {
			text = text[:1]
		}
		start := int(math.Ceil(k.Left))
		for i, r := range text {
			if start+i >= len(row) || float64(i) >= k.Width {
				break
			}
			row[start+i].ch = r
			row[start+i].fg = m.colours.Border
		}
	}
}

// renderRow joins runs of identically coloured cells into styled strings
func renderRow(row []cell) string {
	var buf strings.Builder
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].fg == row[i].fg && row[j].bg == row[i].bg {
			run.WriteRune(row[j].ch)
			j++
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(palette.Hex(row[i].fg))).
			Background(lipgloss.Color(palette.Hex(row[i].bg)))
		buf.WriteString(style.Render(run.String()))
		i = j
	}
	return buf.String()
}
