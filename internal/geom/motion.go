package geom

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/grid"
)

// CellMesh maps an object-local mesh through transform into the continuous
// cell coordinates of space. Normals are rotated into the domain's local
// frame and renormalized, without the cell-size scaling.
func CellMesh(m *Mesh, transform mgl64.Mat4, space grid.Space) *Mesh {
	out := &Mesh{
		Verts: make([]mgl64.Vec3, len(m.Verts)),
		Tris:  m.Tris,
	}
	for i, v := range m.Verts {
		out.Verts[i] = space.ToCell(mgl64.TransformCoordinate(v, transform))
	}
	if m.Normals != nil {
		rot := space.IMat.Mat3().Mul3(transform.Mat3())
		out.Normals = make([]mgl64.Vec3, len(m.Normals))
		for i, n := range m.Normals {
			r := rot.Mul3x1(n)
			if l := r.Len(); l > 0 {
				r = r.Mul(1 / l)
			}
			out.Normals[i] = r
		}
	}
	return out
}

// VertexCache remembers cell-space vertex positions between frames so that
// per-vertex velocities can be derived. Positions are stored with the
// domain shift added, which keeps velocities independent of domain motion.
type VertexCache struct {
	prev []mgl64.Vec3
}

// Update stores cur as the previous positions and returns per-vertex
// velocities in cells per second. It returns nil on a cold start or when
// the vertex count changed.
func (c *VertexCache) Update(cur []mgl64.Vec3, shift [3]int, dt float64) []mgl64.Vec3 {
	off := mgl64.Vec3{float64(shift[0]), float64(shift[1]), float64(shift[2])}
	shifted := make([]mgl64.Vec3, len(cur))
	for i, p := range cur {
		shifted[i] = p.Add(off)
	}

	var vel []mgl64.Vec3
	if len(c.prev) == len(cur) && len(cur) > 0 && dt > 0 {
		vel = make([]mgl64.Vec3, len(cur))
		for i := range cur {
			vel[i] = shifted[i].Sub(c.prev[i]).Mul(1 / dt)
		}
	}
	c.prev = shifted
	return vel
}

// Positions returns the cached positions. Update never writes into the
// returned slice, so it can be handed back to Restore later.
func (c *VertexCache) Positions() []mgl64.Vec3 { return c.prev }

// Restore replaces the cached positions with ones saved by Positions.
func (c *VertexCache) Restore(prev []mgl64.Vec3) { c.prev = prev }

// Reset drops the cached positions.
func (c *VertexCache) Reset() { c.prev = nil }

// Warm reports whether a previous frame is cached.
func (c *VertexCache) Warm() bool { return c.prev != nil }
