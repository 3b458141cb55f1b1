package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ghdsim/internal/correlator"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/propagate"
	"github.com/san-kum/ghdsim/internal/tensor"
)

const (
	mapCols         = 60
	mapRows         = 20
	historyCapacity = 600
)

type TickMsg time.Time

type Options struct {
	Title           string
	Dt              float64
	Extrapolation   interp.Extrapolation
	CorrelatorOrder int
	FrameRate       int
}

type snapshot struct {
	theta *tensor.Field
	t     float64
}

// Model steps a propagation on every tick and renders the phase-space filling
// next to the density profile and the atom-number history.
type Model struct {
	prop    *propagate.Propagator
	dresser *ghd.Dresser
	engine  *correlator.Engine
	opts    Options

	initial     *tensor.Field
	theta       *tensor.Field
	t           float64
	steps       int
	unconverged int
	running     bool
	err         error

	density  []float64
	corr     []float64
	atoms    []float64
	history  []snapshot
	playHead int
	showHelp bool
}

func NewModel(p *propagate.Propagator, d *ghd.Dresser, theta0 *tensor.Field, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	m := Model{
		prop:     p,
		dresser:  d,
		opts:     opts,
		initial:  theta0.Clone(),
		theta:    theta0.Clone(),
		running:  true,
		atoms:    make([]float64, 0, historyCapacity),
		history:  make([]snapshot, 0, historyCapacity),
		playHead: -1,
	}
	if opts.CorrelatorOrder > 0 {
		m.engine = correlator.New(d)
	}
	m.refresh()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FrameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	next, res, err := m.prop.Step(m.theta, m.t, m.opts.Dt, m.opts.Extrapolation)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	if !res.Converged {
		m.unconverged++
	}
	m.history = append(m.history, snapshot{theta: m.theta, t: m.t})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	m.theta = next
	m.t += m.opts.Dt
	m.steps++
	m.refresh()
}

// refresh recomputes the derived profiles for the current filling.
func (m *Model) refresh() {
	q, err := m.dresser.Charges(m.theta, 0, m.t)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.density = q
	g := m.dresser.Grid()
	total := 0.0
	for x, v := range q {
		total += v * g.PositionSpacing(x)
	}
	m.atoms = append(m.atoms, total)
	if len(m.atoms) > historyCapacity {
		m.atoms = m.atoms[1:]
	}
	if m.engine != nil {
		corr, err := m.engine.LocalMasked(m.opts.CorrelatorOrder, m.theta, m.t)
		if err != nil {
			m.corr = nil
			return
		}
		m.corr = corr
	}
}

func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history)
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	m.theta = m.initial.Clone()
	m.t = 0
	m.steps = 0
	m.unconverged = 0
	m.err = nil
	m.running = true
	m.atoms = m.atoms[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.refresh()
}

func (m Model) Time() float64 { return m.t }
func (m Model) Steps() int    { return m.steps }
func (m Model) Running() bool { return m.running }
func (m Model) Err() error    { return m.err }

func (m Model) Density() []float64 {
	out := make([]float64, len(m.density))
	copy(out, m.density)
	return out
}

func (m Model) View() string {
	theta, t := m.theta, m.t
	status := running.Render("RUNNING")
	switch {
	case m.err != nil:
		status = failed.Render("FAILED")
	case m.playHead >= 0 && m.playHead < len(m.history):
		snap := m.history[m.playHead]
		theta, t = snap.theta, snap.t
		status = paused.Render(fmt.Sprintf("REPLAY (%.2f)", t-m.t))
	case !m.running:
		status = paused.Render("PAUSED")
	}

	canvas := panelStyle.Render(Heatmap(theta, 0, mapCols, mapRows))

	var s strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "ghd"
	}
	s.WriteString(headerStyle.Render(strings.ToUpper(title)) + "\n")
	s.WriteString(status + "\n\n")
	if len(m.density) > 1 {
		chart := asciigraph.Plot(m.density, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("density"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.atoms) > 1 {
		chart := asciigraph.Plot(m.atoms, asciigraph.Height(3), asciigraph.Width(30), asciigraph.Caption("atom number"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.corr) > 1 {
		chart := asciigraph.Plot(m.corr, asciigraph.Height(3), asciigraph.Width(30),
			asciigraph.Caption(fmt.Sprintf("g%d", m.opts.CorrelatorOrder)))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3f", t)) + "\n")
	s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", m.steps)) + "\n")
	if len(m.atoms) > 0 {
		s.WriteString(labelStyle.Render("Atoms") + valueStyle.Render(fmt.Sprintf("%.4f", m.atoms[len(m.atoms)-1])) + "\n")
	}
	s.WriteString(labelStyle.Render("Unconverged") + valueStyle.Render(fmt.Sprintf("%d", m.unconverged)) + "\n")
	if m.err != nil {
		s.WriteString("\n" + failed.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\n[ ]:Replay ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvas, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + view
	}
	return view
}

const helpText = `
  Space  pause or resume
  R      reset to the initial filling
  [ ]    step through recent history
  ?      toggle this help
  Q      quit`

// Run starts the live view on the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
