package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	panel  lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	hint   lipgloss.Style
	paused lipgloss.Style
	shades []lipgloss.Style
}

const shadeLevels = 8

func newStyles(t Theme) styles {
	s := styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		label:  lipgloss.NewStyle().Foreground(t.Muted),
		value:  lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		hint:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		paused: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
	}
	for i := 0; i < shadeLevels; i++ {
		f := float64(i) / (shadeLevels - 1)
		var c lipgloss.Color
		if f < 0.5 {
			c = mix(t.Sparse, t.Mid, f*2)
		} else {
			c = mix(t.Mid, t.Dense, f*2-1)
		}
		s.shades = append(s.shades, lipgloss.NewStyle().Foreground(c))
	}
	return s
}

// shade paints a canvas glyph by cell density.
func (s styles) shade(glyph string, density float64) string {
	i := int(density * float64(len(s.shades)-1))
	i = max(0, min(len(s.shades)-1, i))
	return s.shades[i].Render(glyph)
}

// mix interpolates two #rrggbb colors.
func mix(a, b lipgloss.Color, t float64) lipgloss.Color {
	ar, ag, ab := rgb(a)
	br, bg, bb := rgb(b)
	lerp := func(x, y int) int { return x + int(t*float64(y-x)) }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", lerp(ar, br), lerp(ag, bg), lerp(ab, bb)))
}

func rgb(c lipgloss.Color) (r, g, b int) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// ProgressBar renders a fixed width bar for fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := max(0, min(width, int(fraction*float64(width))))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
