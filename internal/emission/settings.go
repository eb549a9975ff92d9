package emission

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Type int

const (
	Smoke Type = iota
	Fire
	SmokeFire
	Outflow
)

func (t Type) String() string {
	switch t {
	case Smoke:
		return "smoke"
	case Fire:
		return "fire"
	case SmokeFire:
		return "smoke+fire"
	case Outflow:
		return "outflow"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	for t := Smoke; t <= Outflow; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown flow type: %s", s)
}

type Source int

const (
	FromMesh Source = iota
	FromParticles
)

func (s Source) String() string {
	if s == FromParticles {
		return "particles"
	}
	return "mesh"
}

func ParseSource(s string) (Source, error) {
	switch s {
	case "", "mesh":
		return FromMesh, nil
	case "particles":
		return FromParticles, nil
	}
	return 0, fmt.Errorf("unknown flow source: %s", s)
}

// Sampling selects how coarse emission is spread over high resolution
// blocks.
type Sampling int

const (
	Linear Sampling = iota
	Nearest
)

func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "", "linear":
		return Linear, nil
	case "nearest":
		return Nearest, nil
	}
	return 0, fmt.Errorf("unknown sampling: %s", s)
}

// Settings describe one flow object. Distances are in cells and velocities
// in cells per second.
type Settings struct {
	Type     Type
	Source   Source
	Absolute bool

	Density     float64
	FuelAmount  float64
	Temperature float64
	Color       mgl64.Vec3

	SurfaceDistance float64
	// VolumeDensity is the influence given to cells inside a closed mesh; 0
	// disables the volume test.
	VolumeDensity float64

	InitialVelocity    bool
	VelocityNormal     float64
	VelocityMultiplier float64
	// VertexWeights optionally scales influence per vertex.
	VertexWeights []float64

	UseParticleSize bool
	// ParticleSize is the particle diameter in cells.
	ParticleSize float64
	// ChildFraction is the share of child particles that emit.
	ChildFraction float64
}

func DefaultSettings() Settings {
	return Settings{
		Type:               Smoke,
		Density:            1,
		FuelAmount:         1,
		Temperature:        1,
		Color:              mgl64.Vec3{0.7, 0.7, 0.7},
		SurfaceDistance:    1.5,
		VelocityMultiplier: 1,
		ParticleSize:       1,
		ChildFraction:      1,
	}
}

func (s Settings) Validate() error {
	if s.Type < Smoke || s.Type > Outflow {
		return fmt.Errorf("invalid flow type %d", int(s.Type))
	}
	if s.SurfaceDistance < 0 {
		return fmt.Errorf("surface distance must not be negative, got %f", s.SurfaceDistance)
	}
	if s.UseParticleSize && s.ParticleSize <= 0 {
		return fmt.Errorf("particle size must be positive, got %f", s.ParticleSize)
	}
	if s.ChildFraction < 0 || s.ChildFraction > 1 {
		return fmt.Errorf("child fraction must be in [0,1], got %f", s.ChildFraction)
	}
	return nil
}
