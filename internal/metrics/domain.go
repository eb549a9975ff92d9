package metrics

import (
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/sim"
)

// MaxVelocity is the fastest cell speed seen, in cells per second.
type MaxVelocity struct {
	peak float64
}

func NewMaxVelocity() *MaxVelocity { return &MaxVelocity{} }

func (m *MaxVelocity) Name() string { return "max_velocity" }

func (m *MaxVelocity) Observe(d *domain.Domain, stats sim.FrameStats) {
	m.peak = max(m.peak, stats.MaxVelocity)
}

func (m *MaxVelocity) Value() float64 { return m.peak }
func (m *MaxVelocity) Reset()         { m.peak = 0 }

// DomainCells tracks the largest allocated cell count. With an adaptive
// domain this is the high water mark of the window.
type DomainCells struct {
	peak int
}

func NewDomainCells() *DomainCells { return &DomainCells{} }

func (m *DomainCells) Name() string { return "domain_cells" }

func (m *DomainCells) Observe(d *domain.Domain, stats sim.FrameStats) {
	m.peak = max(m.peak, d.TotalCells)
}

func (m *DomainCells) Value() float64 { return float64(m.peak) }
func (m *DomainCells) Reset()         { m.peak = 0 }

// Resizes counts the frames on which the adaptive domain changed shape.
type Resizes struct {
	n int
}

func NewResizes() *Resizes { return &Resizes{} }

func (m *Resizes) Name() string { return "resizes" }

func (m *Resizes) Observe(d *domain.Domain, stats sim.FrameStats) {
	if stats.Resized {
		m.n++
	}
}

func (m *Resizes) Value() float64 { return float64(m.n) }
func (m *Resizes) Reset()         { m.n = 0 }

// Default returns one instance of every metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewTotalDensity(),
		NewPeakDensity(),
		NewActiveCells(),
		NewMaxVelocity(),
		NewDomainCells(),
		NewResizes(),
	}
}
