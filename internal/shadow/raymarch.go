package shadow

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
)

const (
	// Epsilon is the transmittance at or below which a ray is opaque.
	Epsilon = 1e-6
	// Extinction scales density per cell of unit size; it is multiplied
	// by the domain's Dx.
	Extinction = -7.0
	uncomputed = -1.0
)

// DensityReader exposes the density of one cell by flat index.
type DensityReader interface {
	Density(i int) float64
}

// Densities adapts a density channel to DensityReader.
type Densities []float64

func (d Densities) Density(i int) float64 { return d[i] }

// Raymarcher fills the shadow channel. Rays share prefixes: every cell a
// ray passes first is given the ray's transmittance at that point, and is
// never traced again. It is not safe for concurrent use on one grid.
type Raymarcher struct {
	// Reader overrides the grid's density channel when set.
	Reader DensityReader
}

// Compute traces every cell of g toward light, a world-space position.
func (r *Raymarcher) Compute(space grid.Space, g *engine.Grid, light mgl64.Vec3) {
	var reader DensityReader = Densities(g.Density)
	if r.Reader != nil {
		reader = r.Reader
	}
	res := g.Res
	shadow := g.Shadow
	correct := Extinction * space.Dx

	// cell space with voxel centres on integers
	lp := space.ToCell(light)
	for i := 0; i < 3; i++ {
		lp[i] -= 0.5 + float64(space.ResMin[i])
	}
	hi := mgl64.Vec3{float64(res[0]), float64(res[1]), float64(res[2])}

	for i := range shadow {
		shadow[i] = uncomputed
	}

	for z := 0; z < res[2]; z++ {
		for y := 0; y < res[1]; y++ {
			for x := 0; x < res[0]; x++ {
				index := grid.Index(x, y, z, res)
				if shadow[index] >= 0 {
					continue
				}
				target := mgl64.Vec3{float64(x), float64(y), float64(z)}

				start := lp
				if p, outside := entry(lp, target, hi); outside {
					start = p
				}
				var cell [3]int
				for i := 0; i < 3; i++ {
					cell[i] = min(max(int(math.Floor(start[i])), 0), res[i]-1)
				}

				t := 1.0
				Walk(cell, [3]int{x, y, z}, func(c [3]int) {
					ci := grid.Index(c[0], c[1], c[2], res)
					if t > Epsilon {
						t *= math.Exp(reader.Density(ci) * correct)
					}
					if shadow[ci] < 0 {
						shadow[ci] = t
					}
				})
				shadow[index] = t
			}
		}
	}
}

// entry returns where the ray from origin toward target enters the box
// [0, hi], and whether that point lies ahead of origin.
func entry(origin, target, hi mgl64.Vec3) (mgl64.Vec3, bool) {
	d := target.Sub(origin)
	l := d.Len()
	if l == 0 {
		return origin, false
	}
	d = d.Mul(1 / l)

	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if origin[i] < 0 || origin[i] > hi[i] {
				return origin, false
			}
			continue
		}
		t1 := (0 - origin[i]) / d[i]
		t2 := (hi[i] - origin[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmin > tmax || tmin <= 1e-7 {
		return origin, false
	}
	return origin.Add(d.Mul(tmin)), true
}
