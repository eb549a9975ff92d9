package metrics

import (
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// activeThreshold is the density above which a cell counts as smoke.
const activeThreshold = 1e-3

// TotalDensity is the density summed over the grid, averaged over frames.
type TotalDensity struct {
	total   float64
	samples int
}

func NewTotalDensity() *TotalDensity { return &TotalDensity{} }

func (m *TotalDensity) Name() string { return "total_density" }

func (m *TotalDensity) Observe(d *domain.Domain, stats sim.FrameStats) {
	if d.Grid == nil {
		return
	}
	m.total += floats.Sum(d.Grid.Density)
	m.samples++
}

func (m *TotalDensity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *TotalDensity) Reset() {
	m.total = 0
	m.samples = 0
}

// PeakDensity is the largest single cell density seen.
type PeakDensity struct {
	peak float64
}

func NewPeakDensity() *PeakDensity { return &PeakDensity{} }

func (m *PeakDensity) Name() string { return "peak_density" }

func (m *PeakDensity) Observe(d *domain.Domain, stats sim.FrameStats) {
	if d.Grid == nil || len(d.Grid.Density) == 0 {
		return
	}
	m.peak = max(m.peak, floats.Max(d.Grid.Density))
}

func (m *PeakDensity) Value() float64 { return m.peak }
func (m *PeakDensity) Reset()         { m.peak = 0 }

// ActiveCells is the share of cells holding smoke, averaged over frames.
type ActiveCells struct {
	fraction float64
	samples  int
}

func NewActiveCells() *ActiveCells { return &ActiveCells{} }

func (m *ActiveCells) Name() string { return "active_cells" }

func (m *ActiveCells) Observe(d *domain.Domain, stats sim.FrameStats) {
	if d.Grid == nil || len(d.Grid.Density) == 0 {
		return
	}
	n := 0
	for _, v := range d.Grid.Density {
		if v > activeThreshold {
			n++
		}
	}
	m.fraction += float64(n) / float64(len(d.Grid.Density))
	m.samples++
}

func (m *ActiveCells) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.fraction / float64(m.samples)
}

func (m *ActiveCells) Reset() {
	m.fraction = 0
	m.samples = 0
}
