package config

import "sort"

var Presets = map[string]*Config{
	"plume":     plume(),
	"obstacle":  obstacle(),
	"particles": particles(),
	"wind":      wind(),
	"adaptive":  adaptive(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func smokeFlow() *FlowConfig {
	return &FlowConfig{
		Type:               "smoke",
		Source:             "mesh",
		Density:            1,
		Fuel:               1,
		Temperature:        1,
		Color:              Vec{0.7, 0.7, 0.7},
		SurfaceDistance:    1.5,
		VolumeDensity:      1,
		VelocityMultiplier: 1,
		ParticleSize:       1,
		ChildFraction:      1,
	}
}

func still(location Vec, scale float64) []KeyframeConfig {
	return []KeyframeConfig{{Frame: 1, Location: location, Scale: Vec{scale, scale, scale}}}
}

// plume is a sphere of smoke at the bottom of a 2 unit tall domain.
func plume() *Config {
	c := base()
	c.Preset = "plume"
	c.Domain.Location = Vec{0, 0, 1}
	c.Scene.Objects = []ObjectConfig{
		{
			Name:      "source",
			Role:      "flow",
			Shape:     "sphere",
			Keyframes: still(Vec{0, 0, 0.3}, 0.2),
			Flow:      smokeFlow(),
		},
	}
	c.Scene.Lights = []LightConfig{{Name: "key", Kind: "point", Position: Vec{2, 2, 4}}}
	return c
}

// obstacle sweeps a sphere through the plume.
func obstacle() *Config {
	c := plume()
	c.Preset = "obstacle"
	c.Scene.Objects = append(c.Scene.Objects, ObjectConfig{
		Name:  "ball",
		Role:  "collider",
		Shape: "sphere",
		Keyframes: []KeyframeConfig{
			{Frame: 1, Location: Vec{-0.6, 0, 1.1}, Scale: Vec{0.25, 0.25, 0.25}},
			{Frame: 100, Location: Vec{0.6, 0, 1.1}, Scale: Vec{0.25, 0.25, 0.25}},
		},
		Collider: &ColliderConfig{},
	}, ObjectConfig{
		Name:      "floor",
		Role:      "collider",
		Shape:     "plane",
		Keyframes: still(Vec{0, 0, 0.02}, 1.5),
		Collider:  &ColliderConfig{Static: true},
	})
	return c
}

// particles emits sized smoke puffs from a rising particle fountain.
func particles() *Config {
	c := plume()
	c.Preset = "particles"
	flow := smokeFlow()
	flow.Source = "particles"
	flow.UseParticleSize = true
	flow.ParticleSize = 2
	flow.ChildFraction = 0.5
	flow.InitialVelocity = true
	c.Scene.Objects = []ObjectConfig{
		{
			Name:      "fountain",
			Role:      "flow",
			Shape:     "plane",
			Keyframes: still(Vec{0, 0, 0.2}, 1),
			Flow:      flow,
			Particles: &ParticleConfig{
				Start:       1,
				End:         60,
				Rate:        8,
				Lifetime:    40,
				Radius:      0.2,
				Velocity:    Vec{0, 0, 0.8},
				Children:    2,
				ChildRadius: 0.03,
			},
		},
	}
	return c
}

// wind blows the plume sideways and twists it.
func wind() *Config {
	c := plume()
	c.Preset = "wind"
	c.Scene.Fields = []FieldConfig{
		{Kind: "wind", Direction: Vec{1, 0, 0}, Strength: 2, Weight: 1},
		{Kind: "vortex", Position: Vec{0, 0, 1}, Direction: Vec{0, 0, 1}, Strength: 1, Weight: 1},
		{Kind: "drag", Strength: 0.1, Weight: 1},
	}
	return c
}

// adaptive moves a fire source through a large adaptive domain.
func adaptive() *Config {
	c := plume()
	c.Preset = "adaptive"
	c.Domain.Resolution = 48
	c.Domain.Adaptive = true
	c.Dissolve = DissolveConfig{Enabled: true, Speed: 25, Logarithmic: true}
	flow := smokeFlow()
	flow.Type = "smoke+fire"
	c.Scene.Objects = []ObjectConfig{
		{
			Name:  "torch",
			Role:  "flow",
			Shape: "sphere",
			Keyframes: []KeyframeConfig{
				{Frame: 1, Location: Vec{-0.6, 0, 0.3}, Scale: Vec{0.15, 0.15, 0.15}},
				{Frame: 100, Location: Vec{0.6, 0, 0.6}, Scale: Vec{0.15, 0.15, 0.15}},
			},
			Flow: flow,
		},
	}
	return c
}
