// Package geom answers nearest-point and ray-cast queries against triangle
// meshes. Emitters and colliders are converted into the domain's cell space
// before a BVH is built over them.
package geom

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoGeometry is returned when a query structure cannot be built because
// the mesh has no usable triangles.
var ErrNoGeometry = errors.New("no geometry")

// Mesh is an indexed triangle mesh. Normals holds one normal per vertex and
// may be nil until ComputeNormals is called.
type Mesh struct {
	Verts   []mgl64.Vec3
	Normals []mgl64.Vec3
	Tris    [][3]int
}

// Bounds returns the axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() (min, max mgl64.Vec3, ok bool) {
	if m == nil || len(m.Verts) == 0 {
		return min, max, false
	}
	min, max = m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max, true
}

// ComputeNormals sets area-weighted vertex normals from the faces.
func (m *Mesh) ComputeNormals() {
	m.Normals = make([]mgl64.Vec3, len(m.Verts))
	for _, t := range m.Tris {
		a, b, c := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range t {
			m.Normals[i] = m.Normals[i].Add(n)
		}
	}
	for i, n := range m.Normals {
		if l := n.Len(); l > 0 {
			m.Normals[i] = n.Mul(1 / l)
		}
	}
}

// Transform returns a copy of m with positions mapped through mat and
// normals through its rotational part.
func (m *Mesh) Transform(mat mgl64.Mat4) *Mesh {
	out := &Mesh{
		Verts: make([]mgl64.Vec3, len(m.Verts)),
		Tris:  m.Tris,
	}
	for i, v := range m.Verts {
		out.Verts[i] = mgl64.TransformCoordinate(v, mat)
	}
	if m.Normals != nil {
		rot := mat.Mat3()
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

// Clone returns a deep copy of the vertex data.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Verts:   append([]mgl64.Vec3(nil), m.Verts...),
		Normals: append([]mgl64.Vec3(nil), m.Normals...),
		Tris:    append([][3]int(nil), m.Tris...),
	}
}
