package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Space is a read-only snapshot of the domain's world-to-cell mapping for
// one frame. Cell coordinates are absolute (not relative to ResMin) unless
// noted otherwise.
type Space struct {
	ObMat    mgl64.Mat4 // domain object -> world
	IMat     mgl64.Mat4 // world -> domain object
	P0       mgl64.Vec3
	CellSize mgl64.Vec3
	Dx       float64

	Shift   [3]int
	BaseRes [3]int
	ResMin  [3]int
	Res     [3]int

	// AdaptMargin is zero unless the domain is adaptive.
	AdaptMargin int
}

// ToCell converts a world position into continuous cell coordinates.
func (s Space) ToCell(world mgl64.Vec3) mgl64.Vec3 {
	local := mgl64.TransformCoordinate(world, s.IMat).Sub(s.P0)
	return mgl64.Vec3{
		local[0] / s.CellSize[0],
		local[1] / s.CellSize[1],
		local[2] / s.CellSize[2],
	}
}

// DirToCell converts a world-space direction (or velocity) into cells.
func (s Space) DirToCell(v mgl64.Vec3) mgl64.Vec3 {
	local := s.IMat.Mat3().Mul3x1(v)
	return mgl64.Vec3{
		local[0] / s.CellSize[0],
		local[1] / s.CellSize[1],
		local[2] / s.CellSize[2],
	}
}

// DirToWorld converts a cell-space direction (or velocity) into world space.
func (s Space) DirToWorld(v mgl64.Vec3) mgl64.Vec3 {
	local := mgl64.Vec3{v[0] * s.CellSize[0], v[1] * s.CellSize[1], v[2] * s.CellSize[2]}
	return s.ObMat.Mat3().Mul3x1(local)
}

// CellCenter returns the world position of the centre of grid cell
// (x, y, z), given relative to ResMin.
func (s Space) CellCenter(x, y, z int) mgl64.Vec3 {
	local := mgl64.Vec3{
		s.P0[0] + s.CellSize[0]*(float64(x+s.ResMin[0])+0.5),
		s.P0[1] + s.CellSize[1]*(float64(y+s.ResMin[1])+0.5),
		s.P0[2] + s.CellSize[2]*(float64(z+s.ResMin[2])+0.5),
	}
	return mgl64.TransformCoordinate(local, s.ObMat)
}

// Clamp pads b by margin cells, widens it along the velocity extremes
// (cells per second, nil to skip) and clamps every axis into
// [-AdaptMargin, BaseRes+AdaptMargin].
func (s Space) Clamp(b *Box, minVel, maxVel *mgl64.Vec3, margin int, dt float64) {
	for i := 0; i < 3; i++ {
		b.Min[i] -= margin
		b.Max[i] += margin

		if minVel != nil && minVel[i] < 0 {
			b.Min[i] += int(math.Floor(minVel[i] * dt))
		}
		if maxVel != nil && maxVel[i] > 0 {
			b.Max[i] += int(math.Ceil(maxVel[i] * dt))
		}

		lo, hi := -s.AdaptMargin, s.BaseRes[i]+s.AdaptMargin
		b.Min[i] = clampInt(b.Min[i], lo, hi)
		b.Max[i] = clampInt(b.Max[i], lo, hi)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
