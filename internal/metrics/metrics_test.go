package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/sim"
)

func testDomain(t *testing.T) *domain.Domain {
	t.Helper()
	d, err := domain.New(nil, domain.Options{Resolution: 4})
	if err != nil {
		t.Fatalf("new domain failed: %v", err)
	}
	if err := d.Reset(mgl64.Ident4(), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	return d
}

func TestTotalDensity(t *testing.T) {
	d := testDomain(t)
	m := NewTotalDensity()

	d.Grid.Density[0] = 1
	d.Grid.Density[1] = 2
	m.Observe(d, sim.FrameStats{})
	d.Grid.Density[1] = 0
	m.Observe(d, sim.FrameStats{})

	if math.Abs(m.Value()-2) > 1e-9 {
		t.Errorf("expected mean total 2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestPeakDensity(t *testing.T) {
	d := testDomain(t)
	m := NewPeakDensity()
	d.Grid.Density[5] = 0.5
	m.Observe(d, sim.FrameStats{})
	d.Grid.Density[5] = 0.1
	m.Observe(d, sim.FrameStats{})
	if m.Value() != 0.5 {
		t.Errorf("expected peak 0.5, got %f", m.Value())
	}
}

func TestActiveCells(t *testing.T) {
	d := testDomain(t)
	m := NewActiveCells()
	for i := 0; i < 16; i++ {
		d.Grid.Density[i] = 1
	}
	d.Grid.Density[16] = activeThreshold / 2
	m.Observe(d, sim.FrameStats{})
	if math.Abs(m.Value()-0.25) > 1e-9 {
		t.Errorf("expected a quarter of the cells active, got %f", m.Value())
	}
}

func TestActiveCellsNoGrid(t *testing.T) {
	d, err := domain.New(nil, domain.Options{Resolution: 4})
	if err != nil {
		t.Fatalf("new domain failed: %v", err)
	}
	m := NewActiveCells()
	m.Observe(d, sim.FrameStats{})
	if m.Value() != 0 {
		t.Errorf("expected 0 without a grid, got %f", m.Value())
	}
}

func TestDomainMetrics(t *testing.T) {
	d := testDomain(t)
	vel := NewMaxVelocity()
	cells := NewDomainCells()
	resizes := NewResizes()

	frames := []sim.FrameStats{
		{MaxVelocity: 3, Resized: true},
		{MaxVelocity: 7},
		{MaxVelocity: 1, Resized: true},
	}
	for _, s := range frames {
		vel.Observe(d, s)
		cells.Observe(d, s)
		resizes.Observe(d, s)
	}

	if vel.Value() != 7 {
		t.Errorf("expected max velocity 7, got %f", vel.Value())
	}
	if cells.Value() != 64 {
		t.Errorf("expected 64 cells, got %f", cells.Value())
	}
	if resizes.Value() != 2 {
		t.Errorf("expected 2 resizes, got %f", resizes.Value())
	}
}

func TestDefaultNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric name %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 metrics, got %d", len(seen))
	}
}
