package engine

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrAllocation is returned when a grid cannot be allocated.
var ErrAllocation = errors.New("grid allocation failed")

// Engine is the numerical fluid solver the controller drives. It owns the
// integration of the grids; the controller only sizes and populates them.
type Engine interface {
	Name() string
	Allocate(res [3]int, dx float64) (*Grid, error)
	AllocateHighRes(res [3]int, amplify int) (*HighRes, error)
	// Step advances g by dt. gravity is in cells per second squared,
	// expressed in the domain's local frame.
	Step(g *Grid, gravity mgl64.Vec3, dt float64)
	// StepHighRes advances the companion grid using g's velocity.
	StepHighRes(h *HighRes, g *Grid, dt float64)
}

var activeEngine Engine = NewCPU()

func SetEngine(e Engine) {
	activeEngine = e
}

func GetEngine() Engine {
	return activeEngine
}
