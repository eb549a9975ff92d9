package emission

import (
	"math"

	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
)

const (
	maxDensity = 1.0
	maxFuel    = 10.0
	// contrastPivot is the value left unchanged by high resolution
	// sharpening.
	contrastPivot = 0.4
)

// MoveToward moves a toward b without overshooting: a positive b raises a
// to at most max(a, b), a negative b lowers it to at least min(a, b).
func MoveToward(a, b float64) float64 {
	if b > 0 {
		return math.Min(a+b, math.Max(a, b))
	}
	return math.Max(a+b, math.Min(a, b))
}

// channels is the set of arrays one blend writes. heat and the velocity
// arrays are nil on the high resolution grid.
type channels struct {
	density, heat, fuel, react []float64
	r, g, b                    []float64
}

func coarseChannels(g *engine.Grid) channels {
	return channels{g.Density, g.Heat, g.Fuel, g.React, g.ColorR, g.ColorG, g.ColorB}
}

func highChannels(h *engine.HighRes) channels {
	return channels{h.Density, nil, h.Fuel, h.React, h.ColorR, h.ColorG, h.ColorB}
}

// Apply blends m into the grids. Cells of m outside the allocated window
// are ignored. h may be nil.
func Apply(s Settings, m *Map, space grid.Space, g *engine.Grid, h *engine.HighRes, sampling Sampling) {
	if m == nil {
		return
	}
	coarse := coarseChannels(g)
	var high channels
	if h != nil {
		high = highChannels(h)
	}

	mres := m.Res()
	for ez := 0; ez < mres[2]; ez++ {
		for ey := 0; ey < mres[1]; ey++ {
			for ex := 0; ex < mres[0]; ex++ {
				dx := ex + m.Box.Min[0] - space.ResMin[0]
				dy := ey + m.Box.Min[1] - space.ResMin[1]
				dz := ez + m.Box.Min[2] - space.ResMin[2]
				if !grid.InRange(dx, dy, dz, g.Res) {
					continue
				}
				di := g.Index(dx, dy, dz)
				ei := grid.Index(ex, ey, ez, mres)
				value := m.Influence[ei]

				if s.Type == Outflow {
					if value > 0 {
						outflow(coarse, di)
						g.Vx[di], g.Vy[di], g.Vz[di] = 0, 0, 0
					}
				} else {
					inflow(s, coarse, value, di)
					if s.InitialVelocity && m.Velocity != nil {
						g.Vx[di] = MoveToward(g.Vx[di], m.Velocity[3*ei])
						g.Vy[di] = MoveToward(g.Vy[di], m.Velocity[3*ei+1])
						g.Vz[di] = MoveToward(g.Vz[di], m.Velocity[3*ei+2])
					}
				}

				if h != nil {
					applyBlock(s, m, high, h, [3]int{ex, ey, ez}, [3]int{dx, dy, dz}, sampling)
				}
			}
		}
	}
}

// applyBlock spreads one coarse map cell over its high resolution block.
func applyBlock(s Settings, m *Map, ch channels, h *engine.HighRes, e, d [3]int, sampling Sampling) {
	block := h.Block()
	mres := m.Res()
	at := func(x, y, z int) float64 {
		if x < 0 || y < 0 || z < 0 {
			return 0
		}
		return m.Influence[grid.Index(x, y, z, mres)]
	}

	var corner [2][2][2]float64
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for c := 0; c < 2; c++ {
				corner[a][b][c] = at(e[0]-1+a, e[1]-1+b, e[2]-1+c)
			}
		}
	}

	fb := float64(block)
	for kk := 0; kk < block; kk++ {
		for jj := 0; jj < block; jj++ {
			for ii := 0; ii < block; ii++ {
				var value float64
				var shift [3]int
				switch sampling {
				case Nearest:
					value = corner[1][1][1]
				default:
					f := [3]float64{
						float64(ii)/fb + 0.5/fb,
						float64(jj)/fb + 0.5/fb,
						float64(kk)/fb + 0.5/fb,
					}
					value = trilinear(corner, f)
					value = (value-contrastPivot)*(fb/2) + contrastPivot
					value = math.Min(math.Max(value, 0), 1)
					for i := 0; i < 3; i++ {
						if d[i] >= 1 {
							shift[i] = block / 2
						}
					}
				}

				bi := grid.Index(
					block*d[0]+ii-shift[0],
					block*d[1]+jj-shift[1],
					block*d[2]+kk-shift[2],
					h.Res,
				)
				if s.Type == Outflow {
					if value > 0 {
						outflow(ch, bi)
					}
				} else {
					inflow(s, ch, value, bi)
				}
			}
		}
	}
}

func trilinear(c [2][2][2]float64, f [3]float64) float64 {
	v := 0.0
	for a := 0; a < 2; a++ {
		wa := 1 - f[0]
		if a == 1 {
			wa = f[0]
		}
		for b := 0; b < 2; b++ {
			wb := 1 - f[1]
			if b == 1 {
				wb = f[1]
			}
			for cc := 0; cc < 2; cc++ {
				wc := 1 - f[2]
				if cc == 1 {
					wc = f[2]
				}
				v += c[a][b][cc] * wa * wb * wc
			}
		}
	}
	return v
}

func outflow(ch channels, i int) {
	ch.density[i] = 0
	if ch.heat != nil {
		ch.heat[i] = 0
	}
	ch.fuel[i], ch.react[i] = 0, 0
	ch.r[i], ch.g[i], ch.b[i] = 0, 0, 0
}

func inflow(s Settings, ch channels, value float64, i int) {
	densOld := ch.density[i]
	densFlow := value * s.Density
	if s.Type == Fire {
		densFlow = 0
	}
	fuelFlow := value * s.FuelAmount

	if ch.heat != nil && value > 0 {
		ch.heat[i] = MoveToward(ch.heat[i], s.Temperature)
	}

	if s.Absolute {
		if s.Type != Fire && densFlow > ch.density[i] {
			ch.density[i] = densFlow
		}
		if s.Type != Smoke && fuelFlow != 0 && fuelFlow > ch.fuel[i] {
			ch.fuel[i] = fuelFlow
		}
	} else {
		if s.Type != Fire {
			ch.density[i] = math.Min(math.Max(ch.density[i]+densFlow, 0), maxDensity)
		}
		if s.Type != Smoke && s.FuelAmount != 0 {
			ch.fuel[i] = math.Min(math.Max(ch.fuel[i]+fuelFlow, 0), maxFuel)
		}
	}

	if densFlow != 0 && densOld+densFlow != 0 {
		total := ch.density[i] / (densOld + densFlow)
		ch.r[i] = (ch.r[i] + s.Color[0]*densFlow) * total
		ch.g[i] = (ch.g[i] + s.Color[1]*densFlow) * total
		ch.b[i] = (ch.b[i] + s.Color[2]*densFlow) * total
	}

	if ch.fuel[i] > 1e-7 {
		// soft falloff instead of a hard 1 for new fuel
		react := 1 - (1-value)*(1-value)
		if react > ch.react[i] {
			f := fuelFlow / ch.fuel[i]
			ch.react[i] = react*f + (1-f)*ch.react[i]
			ch.react[i] = math.Min(math.Max(ch.react[i], 0), react)
		}
	}
}
