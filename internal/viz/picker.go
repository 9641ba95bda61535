package viz

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/particlesim/internal/config"
)

// Picker is a menu over the built in presets.
type Picker struct {
	items    []string
	cursor   int
	chosen   string
	canceled bool
	styles   styles
}

func NewPicker() Picker {
	return Picker{items: config.ListPresets(), styles: newStyles(Themes[0])}
}

// Chosen is the selected preset, empty if the menu was closed.
func (p Picker) Chosen() string { return p.chosen }

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		p.canceled = true
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.items) > 0 {
			p.chosen = p.items[p.cursor]
		}
		return p, tea.Quit
	}
	return p, nil
}

func (p Picker) View() string {
	var b strings.Builder
	b.WriteString(p.styles.title.Render("particlesim") + "\n\n")
	for i, name := range p.items {
		line := "  " + name
		if i == p.cursor {
			line = p.styles.paused.Render("> " + name)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + p.styles.hint.Render("enter select  q quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// Pick runs the menu and returns the chosen preset.
func Pick() (string, error) {
	res, err := tea.NewProgram(NewPicker()).Run()
	if err != nil {
		return "", err
	}
	return res.(Picker).Chosen(), nil
}
