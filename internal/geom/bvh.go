package geom

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxLeafSize is the triangle count at which BVH construction stops
// splitting.
const MaxLeafSize = 4

// Nearest is the result of a nearest-point query.
type Nearest struct {
	DistSq float64
	Tri    int
	Point  mgl64.Vec3
	// Weights are the barycentric weights of Point on Tri.
	Weights mgl64.Vec3
}

// RayHit is the result of a ray cast. Normal is the geometric face normal
// given by the triangle's winding.
type RayHit struct {
	Dist   float64
	Tri    int
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// Query is the geometric query service consumed by the emission builder and
// the obstacle voxelizer.
type Query interface {
	NearestPoint(origin mgl64.Vec3, maxDistSq float64) (Nearest, bool)
	RayCast(origin, dir mgl64.Vec3, maxDist float64) (RayHit, bool)
}

type node struct {
	min, max    mgl64.Vec3
	left, right *node
	tris        []int
}

// BVH is a median-split bounding volume hierarchy over the triangles of a
// mesh. It is read-only after Build and safe for concurrent queries.
type BVH struct {
	verts []mgl64.Vec3
	tris  [][3]int
	root  *node
}

var _ Query = (*BVH)(nil)

// Build constructs a BVH over verts and tris. Degenerate triangles are
// skipped; a mesh with none left yields ErrNoGeometry.
func Build(verts []mgl64.Vec3, tris [][3]int) (*BVH, error) {
	ids := make([]int, 0, len(tris))
	for i, t := range tris {
		if t[0] < 0 || t[1] < 0 || t[2] < 0 || t[0] >= len(verts) || t[1] >= len(verts) || t[2] >= len(verts) {
			return nil, fmt.Errorf("triangle %d references a missing vertex: %w", i, ErrNoGeometry)
		}
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		if b.Sub(a).Cross(c.Sub(a)).LenSqr() == 0 {
			continue
		}
		ids = append(ids, i)
	}
	if len(ids) == 0 {
		return nil, ErrNoGeometry
	}
	b := &BVH{verts: verts, tris: tris}
	b.root = b.build(ids)
	return b, nil
}

// BuildMesh is Build over a Mesh.
func BuildMesh(m *Mesh) (*BVH, error) {
	if m == nil {
		return nil, ErrNoGeometry
	}
	return Build(m.Verts, m.Tris)
}

func (b *BVH) triBounds(i int) (mgl64.Vec3, mgl64.Vec3) {
	t := b.tris[i]
	lo, hi := b.verts[t[0]], b.verts[t[0]]
	for _, v := range []mgl64.Vec3{b.verts[t[1]], b.verts[t[2]]} {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}

func (b *BVH) centroid(i int) mgl64.Vec3 {
	t := b.tris[i]
	return b.verts[t[0]].Add(b.verts[t[1]]).Add(b.verts[t[2]]).Mul(1.0 / 3)
}

func (b *BVH) build(ids []int) *node {
	n := &node{}
	n.min, n.max = b.triBounds(ids[0])
	cmin, cmax := b.centroid(ids[0]), b.centroid(ids[0])
	for _, id := range ids[1:] {
		lo, hi := b.triBounds(id)
		c := b.centroid(id)
		for k := 0; k < 3; k++ {
			n.min[k] = math.Min(n.min[k], lo[k])
			n.max[k] = math.Max(n.max[k], hi[k])
			cmin[k] = math.Min(cmin[k], c[k])
			cmax[k] = math.Max(cmax[k], c[k])
		}
	}
	if len(ids) <= MaxLeafSize {
		n.tris = ids
		return n
	}

	spread := cmax.Sub(cmin)
	axis := 0
	if spread[1] > spread[axis] {
		axis = 1
	}
	if spread[2] > spread[axis] {
		axis = 2
	}
	if spread[axis] <= 1e-18 {
		// all centroids coincide
		n.tris = ids
		return n
	}

	sort.Slice(ids, func(i, j int) bool {
		return b.centroid(ids[i])[axis] < b.centroid(ids[j])[axis]
	})
	mid := len(ids) / 2
	n.left = b.build(ids[:mid])
	n.right = b.build(ids[mid:])
	return n
}

func boxDistSq(p, lo, hi mgl64.Vec3) float64 {
	d := 0.0
	for k := 0; k < 3; k++ {
		if p[k] < lo[k] {
			e := lo[k] - p[k]
			d += e * e
		} else if p[k] > hi[k] {
			e := p[k] - hi[k]
			d += e * e
		}
	}
	return d
}

// NearestPoint finds the closest surface point within sqrt(maxDistSq).
func (b *BVH) NearestPoint(origin mgl64.Vec3, maxDistSq float64) (Nearest, bool) {
	best := Nearest{DistSq: maxDistSq, Tri: -1}
	stack := []*node{b.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if boxDistSq(origin, n.min, n.max) > best.DistSq {
			continue
		}
		if n.left == nil {
			for _, id := range n.tris {
				t := b.tris[id]
				p, w := ClosestPoint(origin, b.verts[t[0]], b.verts[t[1]], b.verts[t[2]])
				if d := p.Sub(origin).LenSqr(); d <= best.DistSq {
					best = Nearest{DistSq: d, Tri: id, Point: p, Weights: w}
				}
			}
			continue
		}
		dl := boxDistSq(origin, n.left.min, n.left.max)
		dr := boxDistSq(origin, n.right.min, n.right.max)
		if dl < dr {
			stack = append(stack, n.right, n.left)
		} else {
			stack = append(stack, n.left, n.right)
		}
	}
	return best, best.Tri >= 0
}

// rayBox is the slab test. It returns the entry distance, clamped to 0 when
// the origin is inside the box.
func rayBox(o, inv mgl64.Vec3, lo, hi mgl64.Vec3) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	for k := 0; k < 3; k++ {
		if math.IsInf(inv[k], 0) {
			if o[k] < lo[k] || o[k] > hi[k] {
				return 0, false
			}
			continue
		}
		t1 := (lo[k] - o[k]) * inv[k]
		t2 := (hi[k] - o[k]) * inv[k]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// RayCast returns the closest hit along dir within maxDist. dir need not be
// normalized; Dist is measured in units of |dir|.
func (b *BVH) RayCast(origin, dir mgl64.Vec3, maxDist float64) (RayHit, bool) {
	inv := mgl64.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	best := RayHit{Dist: maxDist, Tri: -1}
	stack := []*node{b.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tmin, ok := rayBox(origin, inv, n.min, n.max)
		if !ok || tmin > best.Dist {
			continue
		}
		if n.left == nil {
			for _, id := range n.tris {
				t := b.tris[id]
				a, bb, c := b.verts[t[0]], b.verts[t[1]], b.verts[t[2]]
				if d, hit := intersectTriangle(origin, dir, a, bb, c); hit && d < best.Dist {
					best = RayHit{
						Dist:   d,
						Tri:    id,
						Point:  origin.Add(dir.Mul(d)),
						Normal: bb.Sub(a).Cross(c.Sub(a)).Normalize(),
					}
				}
			}
			continue
		}
		stack = append(stack, n.left, n.right)
	}
	return best, best.Tri >= 0
}

// Triangle returns the vertex indices of triangle i.
func (b *BVH) Triangle(i int) [3]int { return b.tris[i] }
