package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultResolution     = 32
	DefaultAdaptMargin    = 4
	DefaultAdaptThreshold = 0.02
	DefaultStartFrame     = 1
	DefaultEndFrame       = 100
	DefaultFPS            = 25.0
	DefaultTimeScale      = 1.0
	DefaultAmplify        = 1
	DefaultDissolveSpeed  = 5
	DefaultAlpha          = -0.001
	DefaultBeta           = 0.1
	DefaultPressureIters  = 20
)

// Vec is a three component vector written as a YAML flow sequence.
type Vec [3]float64

type Config struct {
	Preset   string         `yaml:"preset"`
	Domain   DomainConfig   `yaml:"domain"`
	Timing   TimingConfig   `yaml:"timing"`
	Engine   EngineConfig   `yaml:"engine"`
	HighRes  HighResConfig  `yaml:"high_res"`
	Dissolve DissolveConfig `yaml:"dissolve"`
	Shadow   ShadowConfig   `yaml:"shadow"`
	Log      LogConfig      `yaml:"log"`
	Workers  int            `yaml:"workers"`
	Scene    SceneConfig    `yaml:"scene"`
}

// DomainConfig sizes the domain. Its box is the scaled cube placed at
// Location.
type DomainConfig struct {
	Resolution     int     `yaml:"resolution"`
	Adaptive       bool    `yaml:"adaptive"`
	AdaptMargin    int     `yaml:"adapt_margin"`
	AdaptThreshold float64 `yaml:"adapt_threshold"`
	Location       Vec     `yaml:"location,flow"`
	Rotation       Vec     `yaml:"rotation,flow"`
	Scale          Vec     `yaml:"scale,flow"`
}

type TimingConfig struct {
	StartFrame int     `yaml:"start_frame"`
	EndFrame   int     `yaml:"end_frame"`
	FPS        float64 `yaml:"fps"`
	TimeScale  float64 `yaml:"time_scale"`
}

type EngineConfig struct {
	MaxCells           int     `yaml:"max_cells"`
	Alpha              float64 `yaml:"alpha"`
	Beta               float64 `yaml:"beta"`
	PressureIterations int     `yaml:"pressure_iterations"`
}

type HighResConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Amplify  int    `yaml:"amplify"`
	Sampling string `yaml:"sampling"`
}

type DissolveConfig struct {
	Enabled     bool `yaml:"enabled"`
	Speed       int  `yaml:"speed"`
	Logarithmic bool `yaml:"logarithmic"`
}

type ShadowConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SceneConfig struct {
	Gravity Vec            `yaml:"gravity,flow"`
	Objects []ObjectConfig `yaml:"objects"`
	Lights  []LightConfig  `yaml:"lights"`
	Fields  []FieldConfig  `yaml:"fields"`
}

type ObjectConfig struct {
	Name        string             `yaml:"name"`
	Role        string             `yaml:"role"`
	Shape       string             `yaml:"shape"`
	ShapeParams map[string]float64 `yaml:"shape_params,omitempty"`
	Keyframes   []KeyframeConfig   `yaml:"keyframes"`
	Flow        *FlowConfig        `yaml:"flow,omitempty"`
	Particles   *ParticleConfig    `yaml:"particles,omitempty"`
	Collider    *ColliderConfig    `yaml:"collider,omitempty"`
}

type KeyframeConfig struct {
	Frame    int `yaml:"frame"`
	Location Vec `yaml:"location,flow"`
	Rotation Vec `yaml:"rotation,flow"`
	Scale    Vec `yaml:"scale,flow"`
}

type FlowConfig struct {
	Type               string  `yaml:"type"`
	Source             string  `yaml:"source"`
	Absolute           bool    `yaml:"absolute"`
	Density            float64 `yaml:"density"`
	Fuel               float64 `yaml:"fuel"`
	Temperature        float64 `yaml:"temperature"`
	Color              Vec     `yaml:"color,flow"`
	SurfaceDistance    float64 `yaml:"surface_distance"`
	VolumeDensity      float64 `yaml:"volume_density"`
	InitialVelocity    bool    `yaml:"initial_velocity"`
	VelocityNormal     float64 `yaml:"velocity_normal"`
	VelocityMultiplier float64 `yaml:"velocity_multiplier"`
	UseParticleSize    bool    `yaml:"use_particle_size"`
	ParticleSize       float64 `yaml:"particle_size"`
	ChildFraction      float64 `yaml:"child_fraction"`
}

type ParticleConfig struct {
	Start         int     `yaml:"start"`
	End           int     `yaml:"end"`
	Rate          int     `yaml:"rate"`
	Lifetime      int     `yaml:"lifetime"`
	Radius        float64 `yaml:"radius"`
	Velocity      Vec     `yaml:"velocity,flow"`
	GravityFactor float64 `yaml:"gravity_factor"`
	Children      int     `yaml:"children"`
	ChildRadius   float64 `yaml:"child_radius"`
}

type ColliderConfig struct {
	Static bool `yaml:"static"`
}

type LightConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Position Vec    `yaml:"position,flow"`
}

type FieldConfig struct {
	Kind      string             `yaml:"kind"`
	Position  Vec                `yaml:"position,flow"`
	Direction Vec                `yaml:"direction,flow"`
	Strength  float64            `yaml:"strength"`
	Weight    float64            `yaml:"weight"`
	Params    map[string]float64 `yaml:"params,omitempty"`
}

// DefaultConfig is the plume preset.
func DefaultConfig() *Config {
	return plume()
}

// base holds every setting except the scene objects.
func base() *Config {
	return &Config{
		Domain: DomainConfig{
			Resolution:     DefaultResolution,
			AdaptMargin:    DefaultAdaptMargin,
			AdaptThreshold: DefaultAdaptThreshold,
			Scale:          Vec{1, 1, 1},
		},
		Timing: TimingConfig{
			StartFrame: DefaultStartFrame,
			EndFrame:   DefaultEndFrame,
			FPS:        DefaultFPS,
			TimeScale:  DefaultTimeScale,
		},
		Engine: EngineConfig{
			Alpha:              DefaultAlpha,
			Beta:               DefaultBeta,
			PressureIterations: DefaultPressureIters,
		},
		HighRes:  HighResConfig{Amplify: DefaultAmplify, Sampling: "linear"},
		Dissolve: DissolveConfig{Speed: DefaultDissolveSpeed},
		Shadow:   ShadowConfig{Enabled: true},
		Log:      LogConfig{Level: "info", Format: "text"},
		Scene:    SceneConfig{Gravity: Vec{0, 0, -9.81}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}
