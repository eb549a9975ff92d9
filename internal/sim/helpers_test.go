package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/emission"
	"github.com/san-kum/smokesim/internal/geom"
	"github.com/san-kum/smokesim/internal/obstacle"
	"github.com/san-kum/smokesim/internal/scene"
)

var (
	zero = mgl64.Vec3{}
	one  = mgl64.Vec3{1, 1, 1}
)

// boxDomain spans [-1,1]^3 in the world.
func boxDomain() *scene.Object {
	return &scene.Object{
		Name:      "domain",
		Role:      scene.RoleDomain,
		Mesh:      geom.Cube(),
		Keyframes: []scene.Keyframe{scene.At(zero, zero, one)},
	}
}

// smokeBox is a solid cube emitter of half-size scale centred at loc.
func smokeBox(name string, loc mgl64.Vec3, scale float64) *scene.Object {
	flow := emission.DefaultSettings()
	flow.VolumeDensity = 1
	return &scene.Object{
		Name:      name,
		Role:      scene.RoleFlow,
		Mesh:      geom.Cube(),
		Keyframes: []scene.Keyframe{scene.At(loc, zero, mgl64.Vec3{scale, scale, scale})},
		Flow:      &flow,
	}
}

// floorCollider is a static plane through the centres of the bottom slab
// of a boxDomain at resolution res.
func floorCollider(res int) *scene.Object {
	return &scene.Object{
		Name:      "floor",
		Role:      scene.RoleCollider,
		Mesh:      geom.Plane(),
		Keyframes: []scene.Keyframe{scene.At(mgl64.Vec3{0, 0, -1 + 1/float64(res)}, zero, mgl64.Vec3{2, 2, 1})},
		Collider:  &obstacle.Settings{Static: true},
	}
}

func testOptions(opts domain.Options) Options {
	o := DefaultOptions()
	o.StartFrame = 1
	o.EndFrame = 10
	o.Domain = opts
	return o
}

type memCache struct {
	frames map[int]*domain.Snapshot
	reads  int
	writes int
}

func newMemCache() *memCache {
	return &memCache{frames: make(map[int]*domain.Snapshot)}
}

func (c *memCache) Read(frame int) (*domain.Snapshot, bool, error) {
	c.reads++
	s, ok := c.frames[frame]
	return s, ok, nil
}

func (c *memCache) Write(frame int, s *domain.Snapshot) error {
	c.writes++
	c.frames[frame] = s
	return nil
}

type countingMetric struct {
	frames []int
}

func (m *countingMetric) Name() string { return "frames" }
func (m *countingMetric) Observe(d *domain.Domain, stats FrameStats) {
	m.frames = append(m.frames, stats.Frame)
}
func (m *countingMetric) Value() float64 { return float64(len(m.frames)) }
func (m *countingMetric) Reset()         { m.frames = nil }
