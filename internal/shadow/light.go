// Package shadow estimates per-cell light transmittance through the
// density grid from a single light.
package shadow

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type LightKind int

const (
	Point LightKind = iota
	Sun
	Spot
	Area
)

var kindNames = map[string]LightKind{"point": Point, "sun": Sun, "spot": Spot, "area": Area}

func ParseLightKind(s string) (LightKind, error) {
	k, ok := kindNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown light kind: %s", s)
	}
	return k, nil
}

type Light struct {
	Name     string
	Kind     LightKind
	Position mgl64.Vec3
}

// SelectLight returns the first point light, or else the first light.
func SelectLight(lights []Light) (Light, bool) {
	for _, l := range lights {
		if l.Kind == Point {
			return l, true
		}
	}
	if len(lights) > 0 {
		return lights[0], true
	}
	return Light{}, false
}
