package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/smokesim/internal/config"
	"github.com/san-kum/smokesim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var presetInfo = map[string]string{
	"plume":     "rising smoke sphere",
	"obstacle":  "moving ball collider",
	"particles": "particle fountain",
	"wind":      "wind, vortex, drag",
	"adaptive":  "moving fire torch",
}

// Menu lists the presets and opens the live view for the chosen one.
type Menu struct {
	ctx     context.Context
	presets []string
	cursor  int
	live    *Model
	err     error
}

func NewMenu(ctx context.Context) Menu {
	return Menu{ctx: ctx, presets: config.ListPresets()}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.live != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.live = nil
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		live := next.(Model)
		m.live = &live
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		name := m.presets[m.cursor]
		sched, err := buildScheduler(name)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		live := NewModel(m.ctx, sched, name)
		m.live = &live
		return m, live.Init()
	}
	return m, nil
}

func buildScheduler(preset string) (*sim.Scheduler, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}
	sc, opts, eng, err := config.Build(cfg)
	if err != nil {
		return nil, err
	}
	sched, err := sim.New(sc, eng, opts)
	if err != nil {
		return nil, err
	}
	// Log lines would tear the alternate screen.
	return sched.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), nil
}

func (m Menu) View() string {
	if m.live != nil {
		return m.live.View()
	}
	var b strings.Builder
	b.WriteString("\n\n    " + cyan.Render("SMOKESIM") + "\n    " + dim.Render("smoke domain simulator") + "\n    " + dim.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cyan.Render("▸"), white.Render(fmt.Sprintf("%-12s", name)), magenta.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", dimmer.Render(fmt.Sprintf("  %-12s", name)), dimmer.Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + cyan.Render("j/k") + dim.Render(" navigate  ") + cyan.Render("enter") + dim.Render(" run  ") + cyan.Render("esc") + dim.Render(" back  ") + cyan.Render("q") + dim.Render(" quit") + "\n")
	return b.String()
}

func RunMenu(ctx context.Context) error {
	_, err := tea.NewProgram(NewMenu(ctx), tea.WithAltScreen()).Run()
	return err
}
