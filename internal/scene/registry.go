package scene

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/effector"
	"github.com/san-kum/smokesim/internal/geom"
)

// FieldSpec describes a force field independently of its kind. Params
// holds the kind specific scalars: "power" and "max_distance" for radial
// fields, "linear" for drag.
type FieldSpec struct {
	Position  mgl64.Vec3
	Direction mgl64.Vec3
	Strength  float64
	Weight    float64
	Params    map[string]float64
}

type Registry struct {
	shapes map[string]func(map[string]float64) *geom.Mesh
	fields map[string]func(FieldSpec) effector.Field
}

func NewRegistry() *Registry {
	r := &Registry{
		shapes: make(map[string]func(map[string]float64) *geom.Mesh),
		fields: make(map[string]func(FieldSpec) effector.Field),
	}

	r.shapes["box"] = func(map[string]float64) *geom.Mesh { return geom.Cube() }
	r.shapes["plane"] = func(map[string]float64) *geom.Mesh { return geom.Plane() }
	r.shapes["sphere"] = func(params map[string]float64) *geom.Mesh {
		return geom.UVSphere(intParam(params, "segments", 16), intParam(params, "rings", 8))
	}
	r.shapes["cylinder"] = func(params map[string]float64) *geom.Mesh {
		return geom.Cylinder(intParam(params, "segments", 16))
	}

	r.fields["wind"] = func(s FieldSpec) effector.Field {
		return effector.Wind{Direction: s.Direction, Strength: s.Strength, Weight: weight(s)}
	}
	r.fields["vortex"] = func(s FieldSpec) effector.Field {
		return effector.Vortex{Centre: s.Position, Axis: s.Direction, Strength: s.Strength, Weight: weight(s)}
	}
	r.fields["radial"] = func(s FieldSpec) effector.Field {
		return effector.Radial{
			Centre:      s.Position,
			Strength:    s.Strength,
			Power:       s.Params["power"],
			MaxDistance: s.Params["max_distance"],
			Weight:      weight(s),
		}
	}
	r.fields["drag"] = func(s FieldSpec) effector.Field {
		linear := s.Params["linear"]
		if linear == 0 {
			linear = s.Strength
		}
		return effector.Drag{Linear: linear, Weight: weight(s)}
	}

	return r
}

func (r *Registry) GetShape(name string, params map[string]float64) (*geom.Mesh, error) {
	fn, ok := r.shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) GetField(kind string, fs FieldSpec) (effector.Field, error) {
	fn, ok := r.fields[kind]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", kind)
	}
	return fn(fs), nil
}

func (r *Registry) ListShapes() []string {
	return sortedKeys(r.shapes)
}

func (r *Registry) ListFields() []string {
	return sortedKeys(r.fields)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func intParam(params map[string]float64, key string, def int) int {
	if v, ok := params[key]; ok && v > 0 {
		return int(v)
	}
	return def
}

// weight defaults an unset weight to full strength.
func weight(s FieldSpec) float64 {
	if s.Weight == 0 {
		return 1
	}
	return s.Weight
}
