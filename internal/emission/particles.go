package emission

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/parallel"
)

// Particle is one live particle in world space. A child is the
// ChildIndex-th of the ChildCount children of its parent.
type Particle struct {
	Pos, Vel   mgl64.Vec3
	Child      bool
	ChildIndex int
	ChildCount int
}

// emits reports whether p survives the child fraction: each parent keeps
// the first ceil(ChildCount*fraction) of its children.
func (p Particle) emits(fraction float64) bool {
	if !p.Child {
		return true
	}
	keep := int(math.Ceil(float64(max(p.ChildCount, 1)) * fraction))
	return p.ChildIndex < keep
}

// particleSmoothing is the width, in cells, of the linear falloff around
// sized particles.
const particleSmoothing = 0.5

type cellParticle struct {
	pos, vel mgl64.Vec3
}

// BuildFromParticles rasterizes particles into a map. Each particle marks
// the cell containing it, or with UseParticleSize a sphere of
// ParticleSize cells around it.
func BuildFromParticles(space grid.Space, particles []Particle, s Settings, dt float64) *Map {
	pts := make([]cellParticle, 0, len(particles))
	var box grid.Box
	for _, p := range particles {
		if !p.emits(s.ChildFraction) {
			continue
		}
		cp := cellParticle{pos: space.ToCell(p.Pos), vel: space.DirToCell(p.Vel)}
		box.Insert(cp.pos)
		pts = append(pts, cp)
	}
	if len(pts) == 0 {
		return nil
	}

	margin := 1
	if s.UseParticleSize {
		margin = int(math.Ceil(s.ParticleSize*0.5+particleSmoothing)) + 1
	}
	space.Clamp(&box, nil, nil, margin, dt)
	m := NewMap(box, s.InitialVelocity)
	if m == nil {
		return nil
	}

	if s.UseParticleSize {
		splatParticles(m, pts, s)
		return m
	}

	res := m.Res()
	for _, p := range pts {
		var cell [3]int
		bad := false
		for i := 0; i < 3; i++ {
			cell[i] = int(math.Floor(p.pos[i])) - m.Box.Min[i]
			if cell[i] < 0 || cell[i] > res[i]-1 {
				bad = true
				break
			}
		}
		if bad {
			continue
		}
		index := grid.Index(cell[0], cell[1], cell[2], res)
		m.Influence[index] = 1
		if m.Velocity != nil {
			for i := 0; i < 3; i++ {
				m.Velocity[3*index+i] += p.vel[i] * s.VelocityMultiplier
			}
		}
	}
	return m
}

// splatParticles gives every cell the influence of its nearest particle,
// found through a hash of particle cells.
func splatParticles(m *Map, pts []cellParticle, s Settings) {
	solid := s.ParticleSize * 0.5
	reach := solid + particleSmoothing
	r := int(math.Ceil(reach))

	hash := make(map[[3]int][]int, len(pts))
	for i, p := range pts {
		key := [3]int{int(math.Floor(p.pos[0])), int(math.Floor(p.pos[1])), int(math.Floor(p.pos[2]))}
		hash[key] = append(hash[key], i)
	}

	res := m.Res()
	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < res[1]; y++ {
				for x := 0; x < res[0]; x++ {
					ax, ay, az := x+m.Box.Min[0], y+m.Box.Min[1], z+m.Box.Min[2]
					centre := mgl64.Vec3{float64(ax) + 0.5, float64(ay) + 0.5, float64(az) + 0.5}

					best, bestDist := -1, reach
					for dz := -r; dz <= r; dz++ {
						for dy := -r; dy <= r; dy++ {
							for dx := -r; dx <= r; dx++ {
								for _, pi := range hash[[3]int{ax + dx, ay + dy, az + dz}] {
									if d := pts[pi].pos.Sub(centre).Len(); d < bestDist {
										best, bestDist = pi, d
									}
								}
							}
						}
					}
					if best < 0 {
						continue
					}

					index := grid.Index(x, y, z, res)
					if bestDist < solid {
						m.Influence[index] = 1
					} else {
						m.Influence[index] = 1 - (bestDist-solid)/particleSmoothing
					}
					if m.Velocity != nil {
						v := pts[best].vel.Mul(s.VelocityMultiplier)
						m.Velocity[3*index], m.Velocity[3*index+1], m.Velocity[3*index+2] = v[0], v[1], v[2]
					}
				}
			}
		}
	})
}
