package sim

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/scene"
)

func TestCFLSubsteps(t *testing.T) {
	tests := []struct {
		name                      string
		maxVel, dt, timeScale, dx float64
		want                      int
	}{
		{"still", 0, 0.1, 1, 0.1, 1},
		{"slow", 0.4, 0.1, 1, 0.1, 1},
		{"fast", 10, 1, 1, 0.1, 20},
		{"time scaled", 10, 1, 0.5, 0.1, 10},
		{"capped", 1000, 1, 1, 0.1, 25},
		{"no cells", 10, 1, 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CFLSubsteps(tt.maxVel, tt.dt, tt.timeScale, tt.dx); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFrameError(t *testing.T) {
	err := FrameError{Frame: 3, Time: 0.08, Phase: "adapt", Err: domain.ErrAllocation}
	expected := "frame 3 (t=0.0800) adapt: grid allocation failed"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, engine.ErrAllocation) {
		t.Error("expected FrameError to unwrap to the allocation error")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	sc := scene.New()
	sc.Add(boxDomain())

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero fps", func(o *Options) { o.FPS = 0 }},
		{"negative time scale", func(o *Options) { o.TimeScale = -1 }},
		{"end before start", func(o *Options) { o.EndFrame = 0 }},
		{"zero dissolve speed", func(o *Options) { o.Dissolve, o.DissolveSpeed = true, 0 }},
		{"zero resolution", func(o *Options) { o.Domain.Resolution = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(domain.Options{Resolution: 8})
			tt.modify(&opts)
			if _, err := New(sc, nil, opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := New(scene.New(), nil, testOptions(domain.Options{Resolution: 8})); !errors.Is(err, scene.ErrNoDomain) {
		t.Errorf("expected ErrNoDomain, got %v", err)
	}
}

func TestDt(t *testing.T) {
	sc := scene.New()
	sc.Add(boxDomain())
	opts := testOptions(domain.Options{Resolution: 8})
	opts.FPS = 50
	opts.TimeScale = 2
	s, err := New(sc, nil, opts)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if math.Abs(s.Dt()-0.1) > 1e-12 {
		t.Errorf("expected dt 0.1, got %v", s.Dt())
	}
}

func TestFrameStatsLogValue(t *testing.T) {
	v := FrameStats{Frame: 4, ResX: 2, ResY: 3, ResZ: 4, Cells: 24}.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("expected group value, got %v", v.Kind())
	}
	found := false
	for _, a := range v.Group() {
		if a.Key == "cells" && a.Value.Int64() == 24 {
			found = true
		}
	}
	if !found {
		t.Error("expected cells attribute")
	}
}

func TestRunNotifiesMetrics(t *testing.T) {
	sc := scene.New()
	sc.Add(boxDomain())
	sc.Add(smokeBox("smoke", zero, 0.3))
	opts := testOptions(domain.Options{Resolution: 6})
	opts.EndFrame = 3

	s, err := New(sc, nil, opts)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	metric := &countingMetric{}
	s.AddMetric(metric)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(stats) != 3 {
		t.Errorf("expected 3 frames, got %d", len(stats))
	}
	if len(metric.frames) != 2 || metric.frames[0] != 2 {
		t.Errorf("expected frames 2 and 3 observed, got %v", metric.frames)
	}
	if got := s.Metrics()["frames"]; got != 2 {
		t.Errorf("expected metric value 2, got %v", got)
	}
	if stats[2].TotalDensity <= 0 {
		t.Errorf("expected smoke after emission, got %v", stats[2].TotalDensity)
	}
	if stats[2].Emitters != 1 {
		t.Errorf("expected 1 emitter, got %d", stats[2].Emitters)
	}
}

func TestAdvanceClampsFrame(t *testing.T) {
	sc := scene.New()
	sc.Add(boxDomain())
	opts := testOptions(domain.Options{Resolution: 4})
	opts.EndFrame = 2
	s, err := New(sc, nil, opts)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if _, err := s.Advance(context.Background(), -5); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if s.Time() != 1 {
		t.Errorf("expected start frame, got %d", s.Time())
	}
	if _, err := s.Advance(context.Background(), 2); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	stats, err := s.Advance(context.Background(), 99)
	if err != nil {
		t.Fatalf("expected frame past the end to hold the last frame, got %v", err)
	}
	if stats.Frame != 2 || s.Time() != 2 {
		t.Errorf("expected frame 2, got %d", stats.Frame)
	}
}
