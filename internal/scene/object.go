// Package scene holds the objects, lights and force fields a simulation
// is driven by, and the keyframed motion of those objects.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/emission"
	"github.com/san-kum/smokesim/internal/geom"
	"github.com/san-kum/smokesim/internal/obstacle"
)

var ErrNoDomain = errors.New("scene has no domain object")

type Role int

const (
	RoleDomain Role = iota
	RoleFlow
	RoleCollider
)

func (r Role) String() string {
	switch r {
	case RoleDomain:
		return "domain"
	case RoleFlow:
		return "flow"
	case RoleCollider:
		return "collider"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func ParseRole(s string) (Role, error) {
	for r := RoleDomain; r <= RoleCollider; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role: %s", s)
}

// Keyframe is an object pose at a frame. Rotation is XYZ Euler in degrees.
type Keyframe struct {
	Frame    int
	Location mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
}

// Object is one scene object. Which of Flow, Particles and Collider are
// read depends on Role.
type Object struct {
	Name      string
	Role      Role
	Mesh      *geom.Mesh
	Keyframes []Keyframe

	Flow      *emission.Settings
	Particles *ParticleSystem
	Collider  *obstacle.Settings

	motion geom.VertexCache
}

func (o *Object) Validate() error {
	switch o.Role {
	case RoleDomain:
		if o.Mesh == nil {
			return fmt.Errorf("domain %q has no mesh", o.Name)
		}
	case RoleFlow:
		if o.Flow == nil {
			return fmt.Errorf("flow %q has no flow settings", o.Name)
		}
		if err := o.Flow.Validate(); err != nil {
			return fmt.Errorf("flow %q: %w", o.Name, err)
		}
		if o.Flow.Source == emission.FromParticles && o.Particles == nil {
			return fmt.Errorf("flow %q emits from particles but has no particle system", o.Name)
		}
		if o.Flow.Source == emission.FromMesh && o.Mesh == nil {
			return fmt.Errorf("flow %q emits from a mesh but has none", o.Name)
		}
	case RoleCollider:
		if o.Collider == nil {
			return fmt.Errorf("collider %q has no collider settings", o.Name)
		}
	default:
		return fmt.Errorf("object %q: invalid role %d", o.Name, int(o.Role))
	}
	for i, k := range o.Keyframes {
		if k.Scale == (mgl64.Vec3{}) {
			return fmt.Errorf("object %q: keyframe %d has zero scale", o.Name, i)
		}
	}
	return nil
}

// Pose interpolates the keyframes linearly at frame. Frames outside the
// keyed range hold the nearest key.
func (o *Object) Pose(frame float64) Keyframe {
	if len(o.Keyframes) == 0 {
		return Keyframe{Scale: mgl64.Vec3{1, 1, 1}}
	}
	keys := o.Keyframes
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame }) {
		keys = append([]Keyframe(nil), keys...)
		sort.Slice(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame })
	}

	if frame <= float64(keys[0].Frame) {
		return keys[0]
	}
	last := keys[len(keys)-1]
	if frame >= float64(last.Frame) {
		return last
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if frame > float64(b.Frame) {
			continue
		}
		t := (frame - float64(a.Frame)) / float64(b.Frame-a.Frame)
		return Keyframe{
			Frame:    int(math.Floor(frame)),
			Location: lerp(a.Location, b.Location, t),
			Rotation: lerp(a.Rotation, b.Rotation, t),
			Scale:    lerp(a.Scale, b.Scale, t),
		}
	}
	return last
}

// Matrix is the object-to-world transform at frame.
func (o *Object) Matrix(frame float64) mgl64.Mat4 {
	return poseMatrix(o.Pose(frame))
}

// Bounds is the object-space bounding box of the mesh.
func (o *Object) Bounds() (min, max mgl64.Vec3, ok bool) {
	if o.Mesh == nil {
		return min, max, false
	}
	return o.Mesh.Bounds()
}

// Motion is the vertex cache used to derive mesh velocities.
func (o *Object) Motion() *geom.VertexCache { return &o.motion }

func poseMatrix(k Keyframe) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(k.Rotation[0]))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(k.Rotation[1]))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(k.Rotation[2]))
	t := mgl64.Translate3D(k.Location[0], k.Location[1], k.Location[2])
	s := mgl64.Scale3D(k.Scale[0], k.Scale[1], k.Scale[2])
	return t.Mul4(rz).Mul4(ry).Mul4(rx).Mul4(s)
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// At is a keyframe holding a pose from frame 0 on.
func At(location, rotation, scale mgl64.Vec3) Keyframe {
	return Keyframe{Location: location, Rotation: rotation, Scale: scale}
}
