package emission

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/geom"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/parallel"
)

// normalVelocityScale damps the velocity along the surface normal.
const normalVelocityScale = 0.25

// BuildFromMesh samples a mesh emitter into a map. mesh is in object space
// and transform places it in the world. cache may be nil, in which case no
// motion velocity is produced. A nil map with a nil error means the
// emitter does not reach the domain this frame.
func BuildFromMesh(space grid.Space, mesh *geom.Mesh, transform mgl64.Mat4, cache *geom.VertexCache, s Settings, dt float64) (*Map, error) {
	if mesh == nil || len(mesh.Verts) == 0 {
		return nil, geom.ErrNoGeometry
	}
	if mesh.Normals == nil {
		mesh.ComputeNormals()
	}
	cells := geom.CellMesh(mesh, transform, space)

	var vel []mgl64.Vec3
	if cache != nil {
		vel = cache.Update(cells.Verts, space.Shift, dt)
	}

	bvh, err := geom.BuildMesh(cells)
	if err != nil {
		return nil, err
	}

	var box grid.Box
	for _, v := range cells.Verts {
		box.Insert(v)
	}
	space.Clamp(&box, nil, nil, int(math.Ceil(s.SurfaceDistance)), dt)

	m := NewMap(box, s.InitialVelocity)
	if m == nil {
		return nil, nil
	}

	res := m.Res()
	sampler := meshSampler{bvh: bvh, mesh: cells, vel: vel, s: s}
	parallel.ForSlabs(res[2], func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < res[1]; y++ {
				for x := 0; x < res[0]; x++ {
					sampler.sample(m, x, y, z)
				}
			}
		}
	})
	return m, nil
}

type meshSampler struct {
	bvh  *geom.BVH
	mesh *geom.Mesh
	vel  []mgl64.Vec3
	s    Settings
}

// sample fills the map cell at box-local (x, y, z).
func (ms meshSampler) sample(m *Map, x, y, z int) {
	s := ms.s
	index := grid.Index(x, y, z, m.Res())
	origin := mgl64.Vec3{
		float64(x+m.Box.Min[0]) + 0.5,
		float64(y+m.Box.Min[1]) + 0.5,
		float64(z+m.Box.Min[2]) + 0.5,
	}

	volume := 0.0
	if s.VolumeDensity > 0 {
		dir := mgl64.Vec3{1, 0, 0}
		if hit, ok := ms.bvh.RayCast(origin, dir, math.Inf(1)); ok && hit.Normal.Dot(dir) >= 0 {
			// inside from one side; require a surface on the other side too
			if _, ok := ms.bvh.RayCast(origin, dir.Mul(-1), math.Inf(1)); ok {
				volume = s.VolumeDensity
			}
		}
	}

	strength := 0.0
	var v mgl64.Vec3
	if near, ok := ms.bvh.NearestPoint(origin, s.SurfaceDistance*s.SurfaceDistance); ok {
		if s.SurfaceDistance > 0 {
			f := math.Sqrt(near.DistSq) / s.SurfaceDistance
			f = math.Min(math.Max(f, 0), 1)
			strength = math.Pow(1-f, 0.5)
		}

		t := ms.bvh.Triangle(near.Tri)
		w := near.Weights
		if s.InitialVelocity {
			if s.VelocityNormal != 0 {
				n := geom.Interpolate(w, ms.mesh.Normals[t[0]], ms.mesh.Normals[t[1]], ms.mesh.Normals[t[2]])
				if l := n.Len(); l > 0 {
					v = v.Add(n.Mul(s.VelocityNormal * normalVelocityScale / l))
				}
			}
			if ms.vel != nil && s.VelocityMultiplier != 0 {
				hv := geom.Interpolate(w, ms.vel[t[0]], ms.vel[t[1]], ms.vel[t[2]])
				v = v.Add(hv.Mul(s.VelocityMultiplier))
			}
		}
		if len(s.VertexWeights) == len(ms.mesh.Verts) {
			vw := s.VertexWeights
			strength *= vw[t[0]]*w[0] + vw[t[1]]*w[1] + vw[t[2]]*w[2]
		}
	}

	if m.Velocity != nil {
		v = v.Mul(strength)
		m.Velocity[3*index], m.Velocity[3*index+1], m.Velocity[3*index+2] = v[0], v[1], v[2]
	}
	m.Influence[index] = math.Max(volume, strength)
}
