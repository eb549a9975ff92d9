package domain

import (
	"github.com/san-kum/smokesim/internal/engine"
)

// Snapshot is a deep copy of a domain for the point cache.
type Snapshot struct {
	State State
	Grid  *engine.Grid
	High  *engine.HighRes
}

func (d *Domain) Snapshot() *Snapshot {
	s := &Snapshot{State: d.State}
	if d.Grid != nil {
		s.Grid = d.Grid.Clone()
	}
	if d.High != nil {
		s.High = d.High.Clone()
	}
	return s
}

// Restore replaces the domain's state and grids with copies from s.
func (d *Domain) Restore(s *Snapshot) {
	d.State = s.State
	d.Grid, d.High = nil, nil
	if s.Grid != nil {
		d.Grid = s.Grid.Clone()
	}
	if s.High != nil {
		d.High = s.High.Clone()
	}
}
