// Package emission turns emitter objects into per-frame influence maps and
// blends those maps into the simulation grids.
package emission

import "github.com/san-kum/smokesim/internal/grid"

// Map is the contribution of one emitter for one frame, over a box of
// absolute cells. Velocity holds three interleaved components per cell and
// is nil unless initial velocity was requested.
type Map struct {
	Box       grid.Box
	Influence []float64
	Velocity  []float64
}

// NewMap allocates a map over box, or returns nil if the box is empty.
func NewMap(box grid.Box, velocity bool) *Map {
	n := box.Total()
	if n == 0 {
		return nil
	}
	m := &Map{Box: box, Influence: make([]float64, n)}
	if velocity {
		m.Velocity = make([]float64, 3*n)
	}
	return m
}

func (m *Map) Res() [3]int { return m.Box.Res() }

// Index returns the flat index of the absolute cell (x, y, z).
func (m *Map) Index(x, y, z int) int { return m.Box.Local(x, y, z) }

// At returns the influence at absolute cell (x, y, z), or 0 outside the box.
func (m *Map) At(x, y, z int) float64 {
	if !m.Box.Contains(x, y, z) {
		return 0
	}
	return m.Influence[m.Index(x, y, z)]
}
