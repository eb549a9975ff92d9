package effector

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/parallel"
)

const (
	DefaultForceScale = 0.2
	DefaultEpsilon    = 1e-7
)

// Coupler sums a set of fields into the grid's force channels. Forces are
// stored in the domain's local frame, in world units.
type Coupler struct {
	Fields     []Field
	ForceScale float64
	// Epsilon is the content below which a cell receives no force.
	Epsilon float64
}

func NewCoupler(fields ...Field) *Coupler {
	return &Coupler{
		Fields:     fields,
		ForceScale: DefaultForceScale,
		Epsilon:    DefaultEpsilon,
	}
}

// Apply writes clamp(force*ForceScale, -1, 1) into every free cell that
// holds smoke or fuel. Other cells keep their force.
func (c *Coupler) Apply(space grid.Space, g *engine.Grid) {
	if len(c.Fields) == 0 {
		return
	}
	res := g.Res
	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < res[1]; y++ {
				for x := 0; x < res[0]; x++ {
					i := g.Index(x, y, z)
					if math.Max(g.Density[i], g.Fuel[i]) < c.Epsilon || g.Obstacle[i]&grid.FlagOccupied != 0 {
						continue
					}
					pos := space.CellCenter(x, y, z)
					vel := space.DirToWorld(mgl64.Vec3{g.Vx[i], g.Vy[i], g.Vz[i]})

					var f mgl64.Vec3
					for _, field := range c.Fields {
						f = f.Add(field.Sample(pos, vel))
					}
					f = toLocal(space, f)

					g.Fx[i] = clamp(f[0]*c.ForceScale, -1, 1)
					g.Fy[i] = clamp(f[1]*c.ForceScale, -1, 1)
					g.Fz[i] = clamp(f[2]*c.ForceScale, -1, 1)
				}
			}
		}
	})
}

// toLocal rotates a world vector into the domain frame, keeping its length.
func toLocal(space grid.Space, v mgl64.Vec3) mgl64.Vec3 {
	mag := v.Len()
	if mag == 0 {
		return v
	}
	l := space.IMat.Mat3().Mul3x1(v)
	if n := l.Len(); n > 0 {
		l = l.Mul(mag / n)
	}
	return l
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
