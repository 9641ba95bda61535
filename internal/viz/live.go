package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/sirupsen/logrus"
)

const (
	frameRate    = 30
	canvasCols   = 72
	canvasRows   = 24
	graphWindow  = 120
	maxSpeed     = 8.0
	minSpeed     = 0.125
	groundExtent = 10
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps an experiment once per frame and draws its particles.
type Model struct {
	cfg      *config.Config
	log      *logrus.Entry
	exp      *experiment.Experiment
	camera   *Camera
	canvas   *Canvas
	theme    Theme
	styles   styles
	points   []attr.Float3
	visible  int
	speed    float64
	running  bool
	ground   bool
	showHelp bool
	err      error
}

// NewModel sets up the experiment described by cfg. The config is reused
// whenever the view is reset.
func NewModel(cfg *config.Config, log *logrus.Entry) (Model, error) {
	if log == nil {
		log = logrus.WithField("component", "viz")
	}
	m := Model{
		cfg:     cfg,
		log:     log,
		camera:  NewCamera(),
		canvas:  NewCanvas(canvasCols, canvasRows),
		theme:   Themes[0],
		styles:  newStyles(Themes[0]),
		speed:   1,
		running: true,
		ground:  true,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	exp := experiment.New(m.cfg, m.log)
	if err := exp.Setup(); err != nil {
		return err
	}
	m.exp = exp
	m.points = m.points[:0]
	m.draw()
	return nil
}

// Simulation exposes the running simulation.
func (m Model) Simulation() *sim.Simulation { return m.exp.Simulation() }

func (m Model) Running() bool   { return m.running }
func (m Model) Speed() float64  { return m.speed }
func (m Model) Theme() Theme    { return m.theme }
func (m Model) Camera() *Camera { return m.camera }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "n":
			m.advance()
		case "]":
			m.speed = min(maxSpeed, m.speed*2)
		case "[":
			m.speed = max(minSpeed, m.speed/2)
		case "left", "h":
			m.camera.Orbit(-0.1, 0)
		case "right", "l":
			m.camera.Orbit(0.1, 0)
		case "up", "k":
			m.camera.Orbit(0, 0.05)
		case "down", "j":
			m.camera.Orbit(0, -0.05)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.camera.Frame(m.points)
		case "g":
			m.ground = !m.ground
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	s := m.exp.Simulation()
	s.Step(float32(m.cfg.Dt * m.speed))
	m.draw()
}

func (m *Model) draw() {
	s := m.exp.Simulation()
	if n := s.ParticleCount(); cap(m.points) < n {
		m.points = make([]attr.Float3, n)
	} else {
		m.points = m.points[:n]
	}
	m.points = m.points[:s.Positions(m.points)]

	m.canvas.Clear()
	if m.ground {
		m.camera.Ground(m.canvas, groundExtent, 10)
	}
	m.visible = m.camera.Draw(m.canvas, m.points)
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}
	if m.showHelp {
		return m.styles.panel.Render(helpText)
	}
	view := m.styles.panel.Render(m.canvas.Render(m.styles.shade))
	return lipgloss.JoinHorizontal(lipgloss.Top, view, m.statsView()) + "\n" +
		m.styles.hint.Render("space pause  n step  [/] speed  arrows orbit  +/- zoom  f frame  t theme  ? help  q quit")
}

func (m Model) statsView() string {
	s := m.exp.Simulation()
	var b strings.Builder
	b.WriteString(m.styles.title.Render(m.cfg.Name))
	if !m.running {
		b.WriteString("  " + m.styles.paused.Render("PAUSED"))
	}
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(m.styles.label.Width(12).Render(label))
		b.WriteString(m.styles.value.Render(value))
		b.WriteByte('\n')
	}
	row("time", fmt.Sprintf("%.2fs", s.Time()))
	row("step", fmt.Sprint(s.StepIndex()))
	row("speed", fmt.Sprintf("%gx", m.speed))
	row("particles", fmt.Sprint(s.ParticleCount()))
	row("visible", fmt.Sprint(m.visible))
	row("workers", fmt.Sprint(s.Workers()))

	if last, ok := m.exp.History().Last(); ok {
		row("step time", last.Elapsed.Round(time.Microsecond).String())
		row("emitted", fmt.Sprint(last.Emitted))
		row("killed", fmt.Sprint(last.Killed))
		b.WriteByte('\n')
		for _, k := range last.Kinds {
			row(k.Kind, fmt.Sprintf("%d in %d blocks", k.Particles, k.Blocks))
		}
	}

	if series := m.exp.History().Series("particles"); len(series) > 1 {
		if len(series) > graphWindow {
			series = series[len(series)-graphWindow:]
		}
		b.WriteByte('\n')
		b.WriteString(asciigraph.Plot(series,
			asciigraph.Height(6),
			asciigraph.Width(32),
			asciigraph.Caption("particles")))
	}
	return m.styles.panel.Width(48).Render(b.String())
}

const helpText = `Controls

  space     pause or resume
  n         advance one step
  [ ]       halve or double the time scale
  arrows    orbit the camera (hjkl also works)
  + -       zoom
  f         frame all particles
  g         toggle the ground grid
  t         cycle themes
  r         restart the experiment
  ?         close this help
  q         quit`

// Run opens the live view for cfg and blocks until the user quits.
func Run(cfg *config.Config, log *logrus.Entry) error {
	m, err := NewModel(cfg, log)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
