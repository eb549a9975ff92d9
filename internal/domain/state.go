// Package domain owns the simulation volume: its resolution, its mapping
// from world space to grid cells and, in adaptive mode, the moving window
// of cells that is actually allocated.
package domain

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
)

// ErrAllocation is the engine's allocation failure, re-exported for callers
// that only deal with the domain.
var ErrAllocation = engine.ErrAllocation

// boundsEpsilon is the smallest scaled extent accepted on any axis.
const boundsEpsilon = 1e-6

// State is the sizing and placement of one simulated volume. All positions
// (P0, P1, DP0) are in the domain object's local space.
type State struct {
	BaseRes [3]int
	Res     [3]int
	ResMin  [3]int
	ResMax  [3]int

	CellSize mgl64.Vec3
	Dx       float64
	// Scale is the longest axis in object units, scale applied.
	Scale float64

	P0, P1 mgl64.Vec3
	// DP0 is the unshifted origin.
	DP0 mgl64.Vec3

	Shift  [3]int
	ShiftF mgl64.Vec3
	// PrevLoc is the object's world location at the last refresh.
	PrevLoc mgl64.Vec3

	Adaptive       bool
	AdaptMargin    int
	AdaptThreshold float64
	TotalCells     int

	HighRes bool
	Amplify int

	ObMat mgl64.Mat4
	IMat  mgl64.Mat4
}

// Space returns the world/cell mapping for the current frame.
func (s *State) Space() grid.Space {
	sp := grid.Space{
		ObMat:    s.ObMat,
		IMat:     s.IMat,
		P0:       s.P0,
		CellSize: s.CellSize,
		Dx:       s.Dx,
		Shift:    s.Shift,
		BaseRes:  s.BaseRes,
		ResMin:   s.ResMin,
		Res:      s.Res,
	}
	if s.Adaptive {
		sp.AdaptMargin = s.AdaptMargin
	}
	return sp
}

// objectScale returns the length of each basis column of m.
func objectScale(m mgl64.Mat4) mgl64.Vec3 {
	return mgl64.Vec3{
		m.Col(0).Vec3().Len(),
		m.Col(1).Vec3().Len(),
		m.Col(2).Vec3().Len(),
	}
}

func location(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}
