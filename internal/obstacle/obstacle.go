// Package obstacle rasterizes collider meshes into the obstacle flags and
// obstacle velocity channels of the grid.
package obstacle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/geom"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/parallel"
)

// SurfaceDistance is the distance, in cells, within which a cell centre
// counts as occupied.
const SurfaceDistance = 0.6

type Settings struct {
	// Static colliders keep their cells occupied across frames.
	Static bool
}

// Collider is one collider object for the current frame. Mesh is in object
// space; Cache carries vertex positions between frames and may be nil.
type Collider struct {
	Name      string
	Mesh      *geom.Mesh
	Transform mgl64.Mat4
	Settings  Settings
	Cache     *geom.VertexCache
}

// ResetFlags clears the per-frame flags of every non-static cell and the
// obstacle velocity channels.
func ResetFlags(g *engine.Grid) {
	for i, f := range g.Obstacle {
		if f&grid.FlagStatic == 0 {
			g.Obstacle[i] = f &^ (grid.FlagOccupied | grid.FlagHasVelocity)
		}
		g.ObVx[i], g.ObVy[i], g.ObVz[i] = 0, 0, 0
	}
}

// Voxelizer accumulates colliders into one grid for one frame.
type Voxelizer struct {
	// Counts holds the number of colliders that hit each cell.
	Counts []int
}

func NewVoxelizer(g *engine.Grid) *Voxelizer {
	return &Voxelizer{Counts: make([]int, g.Total())}
}

// Voxelize marks every allocated cell whose centre lies within
// SurfaceDistance of the collider surface, and accumulates the surface
// velocity there when it is known.
func (v *Voxelizer) Voxelize(space grid.Space, c Collider, g *engine.Grid, dt float64) error {
	if c.Mesh == nil || len(c.Mesh.Verts) == 0 {
		return geom.ErrNoGeometry
	}
	cells := geom.CellMesh(c.Mesh, c.Transform, space)

	var vel []mgl64.Vec3
	if c.Cache != nil {
		vel = c.Cache.Update(cells.Verts, space.Shift, dt)
	}
	if c.Settings.Static {
		vel = nil
	}

	bvh, err := geom.BuildMesh(cells)
	if err != nil {
		return err
	}

	var box grid.Box
	for _, p := range cells.Verts {
		box.Insert(p)
	}
	pad := int(math.Ceil(SurfaceDistance)) + 1
	var lo, hi [3]int
	for i := 0; i < 3; i++ {
		lo[i] = max(box.Min[i]-pad, space.ResMin[i]) - space.ResMin[i]
		hi[i] = min(box.Max[i]+pad, space.ResMin[i]+g.Res[i]) - space.ResMin[i]
		if lo[i] >= hi[i] {
			return nil
		}
	}

	flags := grid.FlagOccupied
	if c.Settings.Static {
		flags |= grid.FlagStatic
	}
	if vel != nil {
		flags |= grid.FlagHasVelocity
	}

	parallel.ForSlabs(hi[2]-lo[2], func(z0, z1 int) {
		for z := lo[2] + z0; z < lo[2]+z1; z++ {
			for y := lo[1]; y < hi[1]; y++ {
				for x := lo[0]; x < hi[0]; x++ {
					origin := mgl64.Vec3{
						float64(x+space.ResMin[0]) + 0.5,
						float64(y+space.ResMin[1]) + 0.5,
						float64(z+space.ResMin[2]) + 0.5,
					}
					near, ok := bvh.NearestPoint(origin, SurfaceDistance*SurfaceDistance)
					if !ok {
						continue
					}
					i := g.Index(x, y, z)
					if vel != nil {
						t := bvh.Triangle(near.Tri)
						hv := geom.Interpolate(near.Weights, vel[t[0]], vel[t[1]], vel[t[2]])
						g.ObVx[i] += hv[0]
						g.ObVy[i] += hv[1]
						g.ObVz[i] += hv[2]
					}
					g.Obstacle[i] |= flags
					v.Counts[i]++
				}
			}
		}
	})
	return nil
}

// ZeroOccupied averages the accumulated obstacle velocity over the hit
// counts, then clears occupied cells without a velocity and forces the
// solver velocity of moving obstacle cells to the obstacle velocity.
func ZeroOccupied(g *engine.Grid, counts []int) {
	for i, f := range g.Obstacle {
		if counts != nil && counts[i] > 1 {
			n := float64(counts[i])
			g.ObVx[i] /= n
			g.ObVy[i] /= n
			g.ObVz[i] /= n
		}
		if f&grid.FlagOccupied == 0 {
			continue
		}
		if f&grid.FlagHasVelocity != 0 {
			g.Vx[i], g.Vy[i], g.Vz[i] = g.ObVx[i], g.ObVy[i], g.ObVz[i]
			continue
		}
		g.Vx[i], g.Vy[i], g.Vz[i] = 0, 0, 0
		g.Density[i], g.Fuel[i], g.React[i] = 0, 0, 0
		g.Heat[i], g.Flame[i] = 0, 0
	}
}
