package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/effector"
	"github.com/san-kum/smokesim/internal/shadow"
)

// DefaultGravity is world gravity in units per second squared.
var DefaultGravity = mgl64.Vec3{0, 0, -9.81}

type Scene struct {
	Objects []*Object
	Lights  []shadow.Light
	Fields  []effector.Field
	Gravity mgl64.Vec3
}

func New() *Scene {
	return &Scene{Gravity: DefaultGravity}
}

func (s *Scene) Add(o *Object) *Object {
	s.Objects = append(s.Objects, o)
	return o
}

// Domain returns the first domain object.
func (s *Scene) Domain() (*Object, error) {
	for _, o := range s.Objects {
		if o.Role == RoleDomain {
			return o, nil
		}
	}
	return nil, ErrNoDomain
}

// ByRole returns the objects with role r in scene order.
func (s *Scene) ByRole(r Role) []*Object {
	var out []*Object
	for _, o := range s.Objects {
		if o.Role == r {
			out = append(out, o)
		}
	}
	return out
}

func (s *Scene) Validate() error {
	if _, err := s.Domain(); err != nil {
		return err
	}
	names := make(map[string]bool, len(s.Objects))
	for _, o := range s.Objects {
		if names[o.Name] {
			return fmt.Errorf("duplicate object name: %s", o.Name)
		}
		names[o.Name] = true
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MotionState holds every object's cached vertex positions.
type MotionState [][]mgl64.Vec3

// SaveMotion captures the vertex caches so a failed frame can put them back.
func (s *Scene) SaveMotion() MotionState {
	m := make(MotionState, len(s.Objects))
	for i, o := range s.Objects {
		m[i] = o.motion.Positions()
	}
	return m
}

// RestoreMotion puts back caches captured by SaveMotion.
func (s *Scene) RestoreMotion(m MotionState) {
	for i, o := range s.Objects {
		if i < len(m) {
			o.motion.Restore(m[i])
		}
	}
}

// ResetMotion clears every object's vertex cache.
func (s *Scene) ResetMotion() {
	for _, o := range s.Objects {
		o.motion.Reset()
	}
}
