// Package effector samples external force fields into the force channels
// of the grid.
package effector

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Field returns the force acting on a point moving with vel, both in world
// space.
type Field interface {
	Sample(pos, vel mgl64.Vec3) mgl64.Vec3
}

// Wind pushes everything along Direction.
type Wind struct {
	Direction mgl64.Vec3
	Strength  float64
	Weight    float64
}

func (w Wind) Sample(pos, vel mgl64.Vec3) mgl64.Vec3 {
	if w.Direction.Len() == 0 {
		return mgl64.Vec3{}
	}
	return w.Direction.Normalize().Mul(w.Strength * w.Weight)
}

// Vortex swirls around the line through Centre along Axis.
type Vortex struct {
	Centre   mgl64.Vec3
	Axis     mgl64.Vec3
	Strength float64
	Weight   float64
}

func (v Vortex) Sample(pos, vel mgl64.Vec3) mgl64.Vec3 {
	if v.Axis.Len() == 0 {
		return mgl64.Vec3{}
	}
	axis := v.Axis.Normalize()
	r := pos.Sub(v.Centre)
	r = r.Sub(axis.Mul(r.Dot(axis)))
	t := axis.Cross(r)
	if t.Len() < 1e-12 {
		return mgl64.Vec3{}
	}
	return t.Normalize().Mul(v.Strength * v.Weight)
}

// Radial pushes away from Centre, or pulls toward it with a negative
// Strength, falling off as 1/d^Power beyond one unit. MaxDistance of 0
// means unlimited reach.
type Radial struct {
	Centre      mgl64.Vec3
	Strength    float64
	Power       float64
	MaxDistance float64
	Weight      float64
}

func (r Radial) Sample(pos, vel mgl64.Vec3) mgl64.Vec3 {
	d := pos.Sub(r.Centre)
	dist := d.Len()
	if dist < 1e-12 || (r.MaxDistance > 0 && dist > r.MaxDistance) {
		return mgl64.Vec3{}
	}
	falloff := 1.0
	if r.Power > 0 && dist > 1 {
		falloff = 1 / math.Pow(dist, r.Power)
	}
	return d.Mul(r.Strength * r.Weight * falloff / dist)
}

// Drag opposes motion linearly in velocity.
type Drag struct {
	Linear float64
	Weight float64
}

func (d Drag) Sample(pos, vel mgl64.Vec3) mgl64.Vec3 {
	return vel.Mul(-d.Linear * d.Weight)
}
