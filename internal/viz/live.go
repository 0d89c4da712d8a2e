package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/isingsim/internal/mcmc"
)

const (
	historyCapacity  = 240
	fieldStep        = 0.05
	maxSweepsPerTick = 64
)

type TickMsg time.Time

// Live sweeps an engine on every tick and renders the lattice with its
// recent energy and magnetization history.
type Live struct {
	engine        *mcmc.Engine
	fps           int
	sweepsPerTick int
	sweeps        int
	running       bool
	energyHistory []float64
	magHistory    []float64
	err           error
}

func NewLive(engine *mcmc.Engine, fps, sweepsPerTick int) Live {
	if fps < 1 {
		fps = 30
	}
	if sweepsPerTick < 1 {
		sweepsPerTick = 1
	}
	return Live{
		engine:        engine,
		fps:           fps,
		sweepsPerTick: sweepsPerTick,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		magHistory:    make([]float64, 0, historyCapacity),
	}
}

func (m Live) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and advances the chain.
func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "up", "k":
			m.scaleTemperature(1.05)
		case "down", "j":
			m.scaleTemperature(0.95)
		case "right", "l":
			m.engine.SetExternalField(m.engine.ExternalField() + fieldStep)
		case "left", "h":
			m.engine.SetExternalField(m.engine.ExternalField() - fieldStep)
		case "+", "=":
			m.sweepsPerTick = min(m.sweepsPerTick*2, maxSweepsPerTick)
		case "-", "_":
			m.sweepsPerTick = max(m.sweepsPerTick/2, 1)
		case "t":
			NextTheme()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Live) scaleTemperature(factor float64) {
	m.err = m.engine.SetTemperature(m.engine.Temperature() * factor)
}

func (m *Live) step() {
	for i := 0; i < m.sweepsPerTick; i++ {
		m.engine.Sweep()
	}
	m.sweeps += m.sweepsPerTick

	l := m.engine.Lattice()
	m.energyHistory = appendCapped(m.energyHistory, l.Energy()/float64(l.Sites()))
	m.magHistory = appendCapped(m.magHistory, l.Magnetization())
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// View renders the TUI interface.
func (m Live) View() string {
	l := m.engine.Lattice()

	status := StatusRunning.Render("RUNNING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}

	stats := []string{
		Title.Render(fmt.Sprintf("ISING %dx%d", l.Size(), l.Size())) + "  " + status,
		"",
		MetricLabel.Render("temperature") + MetricValue.Render(fmt.Sprintf("%.4f", m.engine.Temperature())),
		MetricLabel.Render("field") + MetricValue.Render(fmt.Sprintf("%+.3f", m.engine.ExternalField())),
		MetricLabel.Render("coupling") + MetricValue.Render(fmt.Sprintf("%+.3f", l.Coupling())),
		MetricLabel.Render("sweeps") + MetricValue.Render(fmt.Sprintf("%d (x%d/frame)", m.sweeps, m.sweepsPerTick)),
		MetricLabel.Render("acceptance") + MetricValue.Render(fmt.Sprintf("%.3f", m.engine.Stats().AcceptanceRate())),
		MetricLabel.Render("energy/site") + MetricValue.Render(fmt.Sprintf("%+.4f", last(m.energyHistory))),
		MetricLabel.Render("magnetization") + MetricValue.Render(fmt.Sprintf("%+.4f", l.Magnetization())),
		"",
		Subtle.Render("m(t)"),
		Sparkline(m.magHistory, 40, -1, 1),
		Subtle.Render("E/N(t)"),
		Sparkline(m.energyHistory, 40, -2, 2),
	}
	if m.err != nil {
		stats = append(stats, "", SparkLow.Render(m.err.Error()))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		Panel.Render(RenderLattice(l)),
		Panel.Render(strings.Join(stats, "\n")),
	)
	help := KeyHint.Render("space pause • ↑/↓ temperature • ←/→ field • +/- speed • t theme • q quit")
	return body + "\n" + help + "\n"
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
