package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/parallel"
)

// CPU is a small semi-Lagrangian smoke solver: body forces, buoyancy,
// obstacle velocities, advection and a Jacobi pressure projection. It exists
// so the controller can run without an external solver.
type CPU struct {
	// MaxCells caps a single allocation; 0 means unlimited.
	MaxCells int
	// Alpha scales density buoyancy, Beta heat buoyancy. Both act against
	// gravity.
	Alpha, Beta        float64
	PressureIterations int
}

func NewCPU() *CPU {
	return &CPU{
		Alpha:              -0.001,
		Beta:               0.1,
		PressureIterations: 20,
	}
}

func (c *CPU) Name() string { return "cpu" }

func (c *CPU) Allocate(res [3]int, dx float64) (*Grid, error) {
	if c.MaxCells > 0 && grid.Total(res) > c.MaxCells {
		return nil, fmt.Errorf("%w: %v exceeds %d cells", ErrAllocation, res, c.MaxCells)
	}
	return NewGrid(res, dx)
}

func (c *CPU) AllocateHighRes(res [3]int, amplify int) (*HighRes, error) {
	fine := grid.Scale(res, amplify+1)
	if c.MaxCells > 0 && grid.Total(fine) > c.MaxCells*(amplify+1)*(amplify+1)*(amplify+1) {
		return nil, fmt.Errorf("%w: high resolution %v", ErrAllocation, fine)
	}
	return NewHighRes(res, amplify)
}

func (c *CPU) Step(g *Grid, gravity mgl64.Vec3, dt float64) {
	if g.Total() <= 1 || dt <= 0 {
		return
	}

	c.addForces(g, gravity, dt)
	c.enforceObstacles(g)

	vx, vy, vz := g.Vx, g.Vy, g.Vz
	g.Vx = advect(vx, vx, vy, vz, g, dt)
	g.Vy = advect(vy, vx, vy, vz, g, dt)
	g.Vz = advect(vz, vx, vy, vz, g, dt)
	c.enforceObstacles(g)

	c.project(g)

	for _, f := range []*[]float64{&g.Density, &g.Fuel, &g.React, &g.Flame, &g.Heat, &g.ColorR, &g.ColorG, &g.ColorB} {
		*f = advect(*f, g.Vx, g.Vy, g.Vz, g, dt)
	}

	n := g.Total()
	for i := 0; i < n; i++ {
		if g.Obstacle[i]&grid.FlagOccupied != 0 {
			g.Density[i], g.Fuel[i], g.React[i], g.Flame[i], g.Heat[i] = 0, 0, 0, 0, 0
		}
		g.Fx[i], g.Fy[i], g.Fz[i] = 0, 0, 0
	}
}

func (c *CPU) addForces(g *Grid, gravity mgl64.Vec3, dt float64) {
	res := g.Res
	slab := res[0] * res[1]
	inv := 1.0
	if g.Dx > 0 {
		inv = 1 / g.Dx
	}
	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for i := z0 * slab; i < z1*slab; i++ {
			if g.Obstacle[i]&grid.FlagOccupied != 0 {
				continue
			}
			b := -(c.Alpha*g.Density[i] + c.Beta*g.Heat[i])
			g.Vx[i] += dt * (g.Fx[i]*inv + b*gravity[0])
			g.Vy[i] += dt * (g.Fy[i]*inv + b*gravity[1])
			g.Vz[i] += dt * (g.Fz[i]*inv + b*gravity[2])
		}
	})
}

func (c *CPU) enforceObstacles(g *Grid) {
	for i, f := range g.Obstacle {
		if f&grid.FlagOccupied == 0 {
			continue
		}
		if f&grid.FlagHasVelocity != 0 {
			g.Vx[i], g.Vy[i], g.Vz[i] = g.ObVx[i], g.ObVy[i], g.ObVz[i]
		} else {
			g.Vx[i], g.Vy[i], g.Vz[i] = 0, 0, 0
		}
	}
}

// advect traces every cell centre back along (vx, vy, vz) and samples src.
func advect(src, vx, vy, vz []float64, g *Grid, dt float64) []float64 {
	res := g.Res
	dst := make([]float64, len(src))
	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < res[1]; y++ {
				for x := 0; x < res[0]; x++ {
					i := grid.Index(x, y, z, res)
					if g.Obstacle[i]&grid.FlagOccupied != 0 {
						dst[i] = src[i]
						continue
					}
					dst[i] = Sample(src, res,
						float64(x)-vx[i]*dt,
						float64(y)-vy[i]*dt,
						float64(z)-vz[i]*dt)
				}
			}
		}
	})
	return dst
}

func (c *CPU) project(g *Grid) {
	res := g.Res
	n := g.Total()
	div := make([]float64, n)
	p := make([]float64, n)
	next := make([]float64, n)

	solid := func(x, y, z int) bool {
		return !grid.InRange(x, y, z, res) || g.Obstacle[grid.Index(x, y, z, res)]&grid.FlagOccupied != 0
	}
	vel := func(v, ob []float64, x, y, z int) float64 {
		if !grid.InRange(x, y, z, res) {
			return 0
		}
		i := grid.Index(x, y, z, res)
		if g.Obstacle[i]&grid.FlagOccupied != 0 {
			return ob[i]
		}
		return v[i]
	}
	pressure := func(src []float64, x, y, z int, self float64) float64 {
		if solid(x, y, z) {
			return self
		}
		return src[grid.Index(x, y, z, res)]
	}

	slab := res[0] * res[1]
	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for i := z0 * slab; i < z1*slab; i++ {
			x, y, z := grid.Coords(i, res)
			div[i] = -0.5 * (vel(g.Vx, g.ObVx, x+1, y, z) - vel(g.Vx, g.ObVx, x-1, y, z) +
				vel(g.Vy, g.ObVy, x, y+1, z) - vel(g.Vy, g.ObVy, x, y-1, z) +
				vel(g.Vz, g.ObVz, x, y, z+1) - vel(g.Vz, g.ObVz, x, y, z-1))
		}
	})

	for it := 0; it < c.PressureIterations; it++ {
		src, dst := p, next
		parallel.ForSlabs(res[2], func(z0, z1 int) {
			for i := z0 * slab; i < z1*slab; i++ {
				if g.Obstacle[i]&grid.FlagOccupied != 0 {
					dst[i] = 0
					continue
				}
				x, y, z := grid.Coords(i, res)
				self := src[i]
				sum := pressure(src, x+1, y, z, self) + pressure(src, x-1, y, z, self) +
					pressure(src, x, y+1, z, self) + pressure(src, x, y-1, z, self) +
					pressure(src, x, y, z+1, self) + pressure(src, x, y, z-1, self)
				dst[i] = (div[i] + sum) / 6
			}
		})
		p, next = next, p
	}

	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for i := z0 * slab; i < z1*slab; i++ {
			if g.Obstacle[i]&grid.FlagOccupied != 0 {
				continue
			}
			x, y, z := grid.Coords(i, res)
			self := p[i]
			g.Vx[i] -= 0.5 * (pressure(p, x+1, y, z, self) - pressure(p, x-1, y, z, self))
			g.Vy[i] -= 0.5 * (pressure(p, x, y+1, z, self) - pressure(p, x, y-1, z, self))
			g.Vz[i] -= 0.5 * (pressure(p, x, y, z+1, self) - pressure(p, x, y, z-1, self))
		}
	})
}

// StepHighRes advects the fine channels with the trilinearly interpolated
// coarse velocity.
func (c *CPU) StepHighRes(h *HighRes, g *Grid, dt float64) {
	if h == nil || g == nil || dt <= 0 {
		return
	}
	block := float64(h.Block())
	res := h.Res
	fields := []*[]float64{&h.Density, &h.Fuel, &h.React, &h.Flame, &h.ColorR, &h.ColorG, &h.ColorB}
	out := make([][]float64, len(fields))
	for i := range out {
		out[i] = make([]float64, h.Total())
	}

	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < res[1]; y++ {
				for x := 0; x < res[0]; x++ {
					cx := (float64(x)+0.5)/block - 0.5
					cy := (float64(y)+0.5)/block - 0.5
					cz := (float64(z)+0.5)/block - 0.5
					bx := float64(x) - Sample(g.Vx, g.Res, cx, cy, cz)*block*dt
					by := float64(y) - Sample(g.Vy, g.Res, cx, cy, cz)*block*dt
					bz := float64(z) - Sample(g.Vz, g.Res, cx, cy, cz)*block*dt
					i := grid.Index(x, y, z, res)
					for f, src := range fields {
						out[f][i] = Sample(*src, res, bx, by, bz)
					}
				}
			}
		}
	})

	for f, dst := range fields {
		*dst = out[f]
	}
}

// Sample trilinearly interpolates f at continuous cell coordinates, where
// integer coordinates are cell centres. Positions are clamped to the grid.
func Sample(f []float64, res [3]int, x, y, z float64) float64 {
	x0, x1, tx := axis(x, res[0])
	y0, y1, ty := axis(y, res[1])
	z0, z1, tz := axis(z, res[2])

	at := func(x, y, z int) float64 { return f[grid.Index(x, y, z, res)] }

	c00 := at(x0, y0, z0)*(1-tx) + at(x1, y0, z0)*tx
	c10 := at(x0, y1, z0)*(1-tx) + at(x1, y1, z0)*tx
	c01 := at(x0, y0, z1)*(1-tx) + at(x1, y0, z1)*tx
	c11 := at(x0, y1, z1)*(1-tx) + at(x1, y1, z1)*tx

	c0 := c00*(1-ty) + c10*ty
	c1 := c01*(1-ty) + c11*ty
	return c0*(1-tz) + c1*tz
}

func axis(v float64, n int) (int, int, float64) {
	if n <= 1 {
		return 0, 0, 0
	}
	max := float64(n - 1)
	if v < 0 {
		v = 0
	}
	if v > max {
		v = max
	}
	i0 := int(v)
	if i0 >= n-1 {
		i0 = n - 2
	}
	return i0, i0 + 1, v - float64(i0)
}
