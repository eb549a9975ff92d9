package config

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/emission"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/geom"
	obstaclepkg "github.com/san-kum/smokesim/internal/obstacle"
	"github.com/san-kum/smokesim/internal/scene"
	"github.com/san-kum/smokesim/internal/shadow"
	"github.com/san-kum/smokesim/internal/sim"
)

// Build turns cfg into a scene, scheduler options and the reference
// engine it describes.
func Build(cfg *Config) (*scene.Scene, sim.Options, *engine.CPU, error) {
	reg := scene.NewRegistry()
	sc := scene.New()
	sc.Gravity = vec(cfg.Scene.Gravity)

	sc.Add(&scene.Object{
		Name: "domain",
		Role: scene.RoleDomain,
		Mesh: geom.Cube(),
		Keyframes: []scene.Keyframe{{
			Frame:    cfg.Timing.StartFrame,
			Location: vec(cfg.Domain.Location),
			Rotation: vec(cfg.Domain.Rotation),
			Scale:    vec(cfg.Domain.Scale),
		}},
	})

	for _, oc := range cfg.Scene.Objects {
		o, err := buildObject(reg, oc)
		if err != nil {
			return nil, sim.Options{}, nil, err
		}
		sc.Add(o)
	}

	for _, lc := range cfg.Scene.Lights {
		kind, err := shadow.ParseLightKind(lc.Kind)
		if err != nil {
			return nil, sim.Options{}, nil, fmt.Errorf("light %q: %w", lc.Name, err)
		}
		sc.Lights = append(sc.Lights, shadow.Light{Name: lc.Name, Kind: kind, Position: vec(lc.Position)})
	}

	for _, fc := range cfg.Scene.Fields {
		f, err := reg.GetField(fc.Kind, scene.FieldSpec{
			Position:  vec(fc.Position),
			Direction: vec(fc.Direction),
			Strength:  fc.Strength,
			Weight:    fc.Weight,
			Params:    fc.Params,
		})
		if err != nil {
			return nil, sim.Options{}, nil, err
		}
		sc.Fields = append(sc.Fields, f)
	}

	if err := sc.Validate(); err != nil {
		return nil, sim.Options{}, nil, err
	}

	opts, err := Options(cfg)
	if err != nil {
		return nil, sim.Options{}, nil, err
	}

	eng := engine.NewCPU()
	eng.MaxCells = cfg.Engine.MaxCells
	eng.Alpha = cfg.Engine.Alpha
	eng.Beta = cfg.Engine.Beta
	if cfg.Engine.PressureIterations > 0 {
		eng.PressureIterations = cfg.Engine.PressureIterations
	}
	return sc, opts, eng, nil
}

// Options maps the timing, domain and pass settings of cfg onto scheduler
// options.
func Options(cfg *Config) (sim.Options, error) {
	sampling, err := emission.ParseSampling(cfg.HighRes.Sampling)
	if err != nil {
		return sim.Options{}, err
	}
	return sim.Options{
		StartFrame: cfg.Timing.StartFrame,
		EndFrame:   cfg.Timing.EndFrame,
		FPS:        cfg.Timing.FPS,
		TimeScale:  cfg.Timing.TimeScale,
		Domain: domain.Options{
			Resolution:     cfg.Domain.Resolution,
			Adaptive:       cfg.Domain.Adaptive,
			AdaptMargin:    cfg.Domain.AdaptMargin,
			AdaptThreshold: cfg.Domain.AdaptThreshold,
			HighRes:        cfg.HighRes.Enabled,
			Amplify:        cfg.HighRes.Amplify,
		},
		Dissolve:        cfg.Dissolve.Enabled,
		DissolveSpeed:   cfg.Dissolve.Speed,
		DissolveLog:     cfg.Dissolve.Logarithmic,
		Shadows:         cfg.Shadow.Enabled,
		HighResSampling: sampling,
	}, nil
}

func buildObject(reg *scene.Registry, oc ObjectConfig) (*scene.Object, error) {
	role, err := scene.ParseRole(oc.Role)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", oc.Name, err)
	}
	if role == scene.RoleDomain {
		return nil, fmt.Errorf("object %q: the domain is configured in the domain section", oc.Name)
	}
	o := &scene.Object{Name: oc.Name, Role: role}

	if oc.Shape != "" {
		o.Mesh, err = reg.GetShape(oc.Shape, oc.ShapeParams)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", oc.Name, err)
		}
	}

	for _, k := range oc.Keyframes {
		scale := vec(k.Scale)
		if scale == (mgl64.Vec3{}) {
			scale = mgl64.Vec3{1, 1, 1}
		}
		o.Keyframes = append(o.Keyframes, scene.Keyframe{
			Frame:    k.Frame,
			Location: vec(k.Location),
			Rotation: vec(k.Rotation),
			Scale:    scale,
		})
	}

	if oc.Flow != nil {
		s, err := flowSettings(oc.Flow)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", oc.Name, err)
		}
		o.Flow = &s
	}
	if p := oc.Particles; p != nil {
		o.Particles = &scene.ParticleSystem{
			Start:         p.Start,
			End:           p.End,
			Rate:          p.Rate,
			Lifetime:      p.Lifetime,
			Radius:        p.Radius,
			Velocity:      vec(p.Velocity),
			GravityFactor: p.GravityFactor,
			Children:      p.Children,
			ChildRadius:   p.ChildRadius,
		}
	}
	if oc.Collider != nil {
		o.Collider = &obstaclepkg.Settings{Static: oc.Collider.Static}
	}
	return o, nil
}

func flowSettings(fc *FlowConfig) (emission.Settings, error) {
	s := emission.DefaultSettings()
	var err error
	if s.Type, err = emission.ParseType(fc.Type); err != nil {
		return s, err
	}
	if s.Source, err = emission.ParseSource(fc.Source); err != nil {
		return s, err
	}
	s.Absolute = fc.Absolute
	s.Density = fc.Density
	s.FuelAmount = fc.Fuel
	s.Temperature = fc.Temperature
	s.Color = vec(fc.Color)
	s.SurfaceDistance = fc.SurfaceDistance
	s.VolumeDensity = fc.VolumeDensity
	s.InitialVelocity = fc.InitialVelocity
	s.VelocityNormal = fc.VelocityNormal
	s.VelocityMultiplier = fc.VelocityMultiplier
	s.UseParticleSize = fc.UseParticleSize
	s.ParticleSize = fc.ParticleSize
	s.ChildFraction = fc.ChildFraction
	return s, s.Validate()
}

func vec(v Vec) mgl64.Vec3 { return mgl64.Vec3(v) }
