package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cube returns the closed cube [-1,1]^3 with outward winding.
func Cube() *Mesh {
	m := &Mesh{}
	for i := 0; i < 8; i++ {
		m.Verts = append(m.Verts, mgl64.Vec3{
			float64(i&1)*2 - 1,
			float64(i>>1&1)*2 - 1,
			float64(i>>2&1)*2 - 1,
		})
	}
	quads := [][4]int{
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
	}
	for _, q := range quads {
		m.Tris = append(m.Tris, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	orientOutward(m)
	m.ComputeNormals()
	return m
}

// Plane returns the square [-1,1]^2 at z=0 facing +z.
func Plane() *Mesh {
	m := &Mesh{
		Verts: []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		Tris:  [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
	m.ComputeNormals()
	return m
}

// UVSphere returns a unit sphere with the given segment and ring counts.
func UVSphere(segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}
	m := &Mesh{}
	m.Verts = append(m.Verts, mgl64.Vec3{0, 0, 1})
	for r := 1; r < rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			m.Verts = append(m.Verts, mgl64.Vec3{
				math.Sin(phi) * math.Cos(theta),
				math.Sin(phi) * math.Sin(theta),
				math.Cos(phi),
			})
		}
	}
	south := len(m.Verts)
	m.Verts = append(m.Verts, mgl64.Vec3{0, 0, -1})

	ring := func(r, s int) int { return 1 + (r-1)*segments + s%segments }
	for s := 0; s < segments; s++ {
		m.Tris = append(m.Tris, [3]int{0, ring(1, s), ring(1, s+1)})
		m.Tris = append(m.Tris, [3]int{south, ring(rings-1, s+1), ring(rings-1, s)})
	}
	for r := 1; r < rings-1; r++ {
		for s := 0; s < segments; s++ {
			a, b := ring(r, s), ring(r, s+1)
			c, d := ring(r+1, s+1), ring(r+1, s)
			m.Tris = append(m.Tris, [3]int{a, d, c}, [3]int{a, c, b})
		}
	}
	orientOutward(m)
	m.ComputeNormals()
	return m
}

// Cylinder returns a closed cylinder of radius 1 spanning z in [-1,1].
func Cylinder(segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	m := &Mesh{}
	for s := 0; s < segments; s++ {
		theta := 2 * math.Pi * float64(s) / float64(segments)
		x, y := math.Cos(theta), math.Sin(theta)
		m.Verts = append(m.Verts, mgl64.Vec3{x, y, -1}, mgl64.Vec3{x, y, 1})
	}
	bottom := len(m.Verts)
	m.Verts = append(m.Verts, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1})
	top := bottom + 1
	for s := 0; s < segments; s++ {
		n := (s + 1) % segments
		b0, t0, b1, t1 := 2*s, 2*s+1, 2*n, 2*n+1
		m.Tris = append(m.Tris,
			[3]int{b0, b1, t1}, [3]int{b0, t1, t0},
			[3]int{bottom, b1, b0}, [3]int{top, t0, t1})
	}
	orientOutward(m)
	m.ComputeNormals()
	return m
}

// orientOutward flips triangles of a star-shaped mesh centred on the origin
// so that face normals point away from it.
func orientOutward(m *Mesh) {
	for i, t := range m.Tris {
		a, b, c := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		centre := a.Add(b).Add(c)
		if n.Dot(centre) < 0 {
			m.Tris[i] = [3]int{t[0], t[2], t[1]}
		}
	}
}
