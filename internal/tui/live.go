package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/smokesim/internal/sim"
	"github.com/san-kum/smokesim/internal/viz"
)

const historyCapacity = 600

// channels are the grid channels the viewer can show.
var channels = []string{"density", "heat", "flame", "shadow"}

var (
	sliceStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a scheduler one frame per tick and draws a slice of the
// domain next to the frame statistics.
type Model struct {
	sched   *sim.Scheduler
	ctx     context.Context
	name    string
	frame   int
	running bool
	done    bool
	err     error

	axis     viz.Axis
	channel  int
	braille  bool
	showHelp bool

	stats   sim.FrameStats
	density []float64
	cells   []float64
}

func NewModel(ctx context.Context, sched *sim.Scheduler, name string) Model {
	return Model{
		sched:   sched,
		ctx:     ctx,
		name:    name,
		frame:   sched.Options().StartFrame,
		running: true,
		axis:    viz.AxisY,
		density: make([]float64, 0, historyCapacity),
		cells:   make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			m.restart()
		case "a":
			m.axis = m.axis.Next()
		case "c":
			m.channel = (m.channel + 1) % len(channels)
		case "b":
			m.braille = !m.braille
		case "t":
			viz.NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances one frame. It stops at the end frame or on an error.
func (m *Model) step() {
	if m.done || m.err != nil {
		return
	}
	stats, err := m.sched.Advance(m.ctx, m.frame)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.stats = stats
	m.density = appendCapped(m.density, stats.TotalDensity)
	m.cells = appendCapped(m.cells, float64(stats.Cells))
	if m.frame >= m.sched.Options().EndFrame {
		m.done = true
		m.running = false
		return
	}
	m.frame++
}

func (m *Model) restart() {
	m.frame = m.sched.Options().StartFrame
	m.done = false
	m.err = nil
	m.density = m.density[:0]
	m.cells = m.cells[:0]
	m.running = true
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m Model) View() string {
	picture := m.picture()

	var s strings.Builder
	s.WriteString(viz.Title.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	opts := m.sched.Options()
	span := max(opts.EndFrame-opts.StartFrame, 1)
	s.WriteString(viz.ProgressBar(float64(m.stats.Frame-opts.StartFrame)/float64(span), 30) + "\n\n")

	row := func(label, value string) {
		s.WriteString(viz.MetricLabel.Render(label) + viz.MetricValue.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d / %d", m.stats.Frame, opts.EndFrame))
	row("Time", fmt.Sprintf("%.2fs", m.stats.Time))
	res := m.stats.Res()
	row("Res", fmt.Sprintf("%dx%dx%d", res[0], res[1], res[2]))
	row("Cells", fmt.Sprintf("%d", m.stats.Cells))
	row("Density", fmt.Sprintf("%.3f", m.stats.TotalDensity))
	row("Max vel", fmt.Sprintf("%.2f", m.stats.MaxVelocity))
	row("Emitters", fmt.Sprintf("%d", m.stats.Emitters))
	row("Colliders", fmt.Sprintf("%d", m.stats.Colliders))
	row("Step", fmt.Sprintf("%.1fms", m.stats.ElapsedMS))
	row("View", fmt.Sprintf("%s along %s", channels[m.channel], m.axis))

	if len(m.density) > 1 {
		chart := asciigraph.Plot(m.density, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Density"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.cells) > 1 {
		s.WriteString(viz.MetricLabel.Render("Cells") + viz.SparklineChart(m.cells, 28) + "\n")
	}
	s.WriteString(viz.KeyHint.Render("\nSP:Pause .:Step R:Restart Q:Quit\nA:Axis C:Channel B:Braille T:Theme ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, sliceStyle.Render(picture), statsStyle.Render(s.String()))
	if m.showHelp {
		return help + "\n\n" + main
	}
	return main
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return viz.StatusError.Render("ERROR: " + m.err.Error())
	case m.done:
		return viz.StatusPaused.Render("DONE")
	case !m.running:
		return viz.StatusPaused.Render("PAUSED")
	}
	return viz.StatusRunning.Render("RUNNING")
}

func (m Model) picture() string {
	d := m.sched.Domain()
	if d.Grid == nil {
		return viz.Subtle.Render("(no grid)")
	}
	slice, err := viz.Project(d.Grid, channels[m.channel], m.axis)
	if err != nil {
		return viz.StatusError.Render(err.Error())
	}
	if m.braille {
		c := viz.NewCanvas(max(slice.Width/2, 1), max(slice.Height/4, 1))
		c.Plot(slice, 0.05)
		c.Border()
		return c.String()
	}
	return viz.Shade(slice, viz.CurrentTheme)
}

const help = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  .        - Step one frame (paused)  ║
║  R        - Restart from first frame ║
║  A        - Cycle view axis          ║
║  C        - Cycle channel            ║
║  B        - Toggle Braille view      ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// RunLive shows sched in the terminal until the user quits.
func RunLive(ctx context.Context, sched *sim.Scheduler, name string) error {
	_, err := tea.NewProgram(NewModel(ctx, sched, name), tea.WithAltScreen()).Run()
	return err
}
