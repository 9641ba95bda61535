package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view. Particle density is shaded from Sparse to
// Dense through Mid.
type Theme struct {
	Name   string
	Sparse lipgloss.Color
	Mid    lipgloss.Color
	Dense  lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Border lipgloss.Color
}

var Themes = []Theme{
	{
		Name:   "ember",
		Sparse: "#5a1e00",
		Mid:    "#ff7a00",
		Dense:  "#fff3b0",
		Accent: "#ffb347",
		Text:   "#ffffff",
		Muted:  "#776655",
		Border: "#553322",
	},
	{
		Name:   "ocean",
		Sparse: "#003355",
		Mid:    "#00a8cc",
		Dense:  "#e0f0ff",
		Accent: "#ffd700",
		Text:   "#e0f0ff",
		Muted:  "#4488aa",
		Border: "#224466",
	},
	{
		Name:   "retro",
		Sparse: "#004400",
		Mid:    "#00cc00",
		Dense:  "#aaffaa",
		Accent: "#88ff88",
		Text:   "#00ff00",
		Muted:  "#005500",
		Border: "#003300",
	},
	{
		Name:   "mono",
		Sparse: "#555555",
		Mid:    "#aaaaaa",
		Dense:  "#ffffff",
		Accent: "#0088ff",
		Text:   "#ffffff",
		Muted:  "#888888",
		Border: "#444444",
	},
}

// ThemeByName falls back to the first theme for unknown names.
func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
