package sim

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/emission"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/geom"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/obstacle"
	"github.com/san-kum/smokesim/internal/scene"
	"github.com/san-kum/smokesim/internal/shadow"
	"gonum.org/v1/gonum/floats"
)

const (
	// cflNumber is the number of cells a substep may move smoke.
	cflNumber   = 5.0
	maxSubsteps = 25
)

// CFLSubsteps is the substep count that keeps the fastest cell below the
// CFL limit. maxVel and dx are in domain units.
func CFLSubsteps(maxVel, dt, timeScale, dx float64) int {
	if dx <= 0 {
		return 1
	}
	n := int(math.Ceil(maxVel * dt * timeScale / (cflNumber * dx)))
	return min(max(n, 1), maxSubsteps)
}

type emitter struct {
	obj *scene.Object
	m   *emission.Map
}

func (s *Scheduler) step(frame int) (FrameStats, error) {
	d := s.dom
	dt := s.Dt()
	at := float64(frame)
	prev := d.State
	motion := s.scene.SaveMotion()
	fail := func(phase string, err error) (FrameStats, error) {
		d.State = prev
		s.scene.RestoreMotion(motion)
		return FrameStats{}, FrameError{Frame: frame, Time: s.seconds(frame), Phase: phase, Err: err}
	}

	lo, hi, _ := s.domObj.Bounds()
	newShift := d.Refresh(s.domObj.Matrix(at), lo, hi)

	// Computed for reporting; the step itself always runs once.
	substeps := CFLSubsteps(maxVelocity(d.Grid)*d.Dx, s.baseDt(), s.opts.TimeScale, d.Dx)

	space := d.Space()
	var emitters []emitter
	var maps []*emission.Map
	for _, o := range s.scene.ByRole(scene.RoleFlow) {
		m, err := s.buildMap(o, frame, space, dt)
		if errors.Is(err, geom.ErrNoGeometry) {
			s.log.Warn("emitter skipped", "emitter", o.Name, "frame", frame, "err", err)
			continue
		}
		if err != nil {
			return fail("emission", err)
		}
		if m == nil {
			continue
		}
		emitters = append(emitters, emitter{o, m})
		maps = append(maps, m)
	}

	resized := false
	if d.Adaptive {
		changed, err := d.AdjustResolution(newShift, maps, dt)
		if err != nil {
			return fail("adapt", err)
		}
		resized = changed
		if changed {
			s.log.Debug("domain resized", "frame", frame, "res", d.Res, "min", d.ResMin, "cells", d.TotalCells)
		}
	}

	g := d.Grid
	if s.opts.Dissolve {
		engine.Dissolve(g, s.opts.DissolveSpeed, s.opts.DissolveLog)
		engine.DissolveHighRes(d.High, s.opts.DissolveSpeed, s.opts.DissolveLog)
	}

	space = d.Space()
	for _, e := range emitters {
		emission.Apply(*e.obj.Flow, e.m, space, g, d.High, s.opts.HighResSampling)
	}

	colliders := 0
	if d.TotalCells > 1 {
		colliders = s.voxelize(frame, dt)
		s.coupler.Apply(space, g)
		gravity := space.DirToCell(s.scene.Gravity)
		d.Engine().Step(g, gravity, dt)
	}

	if s.opts.Shadows {
		if light, ok := shadow.SelectLight(s.scene.Lights); ok {
			s.raymarch.Compute(space, g, light.Position)
		}
	}
	if d.High != nil {
		d.Engine().StepHighRes(d.High, g, dt)
	}

	stats := s.collect(frame, substeps)
	stats.Resized = resized
	stats.Emitters = len(emitters)
	stats.Colliders = colliders
	return stats, nil
}

func (s *Scheduler) buildMap(o *scene.Object, frame int, space grid.Space, dt float64) (*emission.Map, error) {
	transform := o.Matrix(float64(frame))
	if o.Flow.Source == emission.FromParticles {
		particles := o.Particles.Particles(frame, s.opts.FPS, transform, s.scene.Gravity)
		return emission.BuildFromParticles(space, particles, *o.Flow, dt), nil
	}
	return emission.BuildFromMesh(space, o.Mesh, transform, o.Motion(), *o.Flow, dt)
}

// voxelize rebuilds the obstacle flags from every collider and returns the
// number that reached the grid.
func (s *Scheduler) voxelize(frame int, dt float64) int {
	d := s.dom
	g := d.Grid
	space := d.Space()

	obstacle.ResetFlags(g)
	vox := obstacle.NewVoxelizer(g)
	n := 0
	for _, o := range s.scene.ByRole(scene.RoleCollider) {
		c := obstacle.Collider{
			Name:      o.Name,
			Mesh:      o.Mesh,
			Transform: o.Matrix(float64(frame)),
			Settings:  *o.Collider,
			Cache:     o.Motion(),
		}
		if err := vox.Voxelize(space, c, g, dt); err != nil {
			s.log.Warn("collider skipped", "collider", o.Name, "frame", frame, "err", err)
			continue
		}
		n++
	}
	obstacle.ZeroOccupied(g, vox.Counts)
	return n
}

func (s *Scheduler) collect(frame, substeps int) FrameStats {
	d := s.dom
	stats := FrameStats{
		Frame:       frame,
		Time:        s.seconds(frame),
		Dt:          s.Dt(),
		ResX:        d.Res[0],
		ResY:        d.Res[1],
		ResZ:        d.Res[2],
		Cells:       d.TotalCells,
		CFLSubsteps: max(substeps, 1),
	}
	if d.Grid != nil {
		stats.MaxVelocity = maxVelocity(d.Grid)
		stats.TotalDensity = floats.Sum(d.Grid.Density)
	}
	return stats
}

// maxVelocity is the largest cell speed in cells per second.
func maxVelocity(g *engine.Grid) float64 {
	if g == nil {
		return 0
	}
	var best float64
	for i := range g.Vx {
		best = math.Max(best, mgl64.Vec3{g.Vx[i], g.Vy[i], g.Vz[i]}.Len())
	}
	return best
}
