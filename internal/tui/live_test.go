package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/smokesim/internal/config"
	"github.com/san-kum/smokesim/internal/sim"
)

func testModel(t *testing.T) Model {
	t.Helper()
	cfg := config.GetPreset("plume")
	cfg.Domain.Resolution = 8
	cfg.Timing.EndFrame = 3
	cfg.Shadow.Enabled = false
	sc, opts, eng, err := config.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	sched, err := sim.New(sc, eng, opts)
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	return NewModel(context.Background(), sched, "plume")
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	if key == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func tickN(m Model, n int) Model {
	for i := 0; i < n; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Model)
	}
	return m
}

func TestLiveRunsToEnd(t *testing.T) {
	m := tickN(testModel(t), 10)
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if !m.done {
		t.Error("expected the run to finish")
	}
	if m.stats.Frame != 3 {
		t.Errorf("expected last frame 3, got %d", m.stats.Frame)
	}
	if len(m.density) != 3 {
		t.Errorf("expected 3 history samples, got %d", len(m.density))
	}
	if !strings.Contains(m.View(), "DONE") {
		t.Error("expected DONE in the view")
	}
}

func TestLivePauseAndStep(t *testing.T) {
	m := press(testModel(t), " ")
	if m.running {
		t.Fatal("expected paused")
	}
	m = tickN(m, 3)
	if len(m.density) != 0 {
		t.Errorf("expected no frames while paused, got %d", len(m.density))
	}
	m = press(m, ".")
	if len(m.density) != 1 {
		t.Errorf("expected one frame after a single step, got %d", len(m.density))
	}
}

func TestLiveRestart(t *testing.T) {
	m := tickN(testModel(t), 10)
	m = press(m, "r")
	if m.done || len(m.density) != 0 || !m.running {
		t.Error("expected a fresh run after restart")
	}
	m = tickN(m, 1)
	if m.stats.Frame != 1 {
		t.Errorf("expected frame 1 after restart, got %d", m.stats.Frame)
	}
}

func TestLiveViewToggles(t *testing.T) {
	m := tickN(testModel(t), 2)
	m = press(m, "c")
	if channels[m.channel] != "heat" {
		t.Errorf("expected heat channel, got %s", channels[m.channel])
	}
	m = press(m, "a")
	m = press(m, "b")
	if !m.braille {
		t.Error("expected braille view")
	}
	if !strings.Contains(m.View(), "heat along z") {
		t.Error("expected view label in the stats panel")
	}
}

func TestMenuOpensPreset(t *testing.T) {
	m := NewMenu(context.Background())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Menu)
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if m.live == nil || cmd == nil {
		t.Fatal("expected the live view to open")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(Menu).live != nil {
		t.Error("expected esc to return to the menu")
	}
}
