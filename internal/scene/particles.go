package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/emission"
)

// goldenAngle spreads births over the emitter disc without clumping.
const goldenAngle = 2.399963229728653

// ParticleSystem is a deterministic point emitter. Parents are born on a
// disc of Radius in the owner's local xy plane and follow a ballistic path.
// Every parent carries Children points on a ring of ChildRadius around it.
type ParticleSystem struct {
	Start, End int
	// Rate is the number of parents born per frame.
	Rate int
	// Lifetime in frames; 0 keeps particles forever.
	Lifetime int
	Radius   float64
	// Velocity is the initial world velocity in units per second.
	Velocity mgl64.Vec3
	// GravityFactor scales scene gravity.
	GravityFactor float64

	Children    int
	ChildRadius float64
}

// Particles returns the live particles at frame in world space. transform
// places the emitter and gravity is the scene gravity.
func (p *ParticleSystem) Particles(frame int, fps float64, transform mgl64.Mat4, gravity mgl64.Vec3) []emission.Particle {
	if p.Rate <= 0 || fps <= 0 || frame < p.Start {
		return nil
	}
	last := frame
	if p.End >= p.Start && last > p.End {
		last = p.End
	}
	g := gravity.Mul(p.GravityFactor)

	var out []emission.Particle
	for born := p.Start; born <= last; born++ {
		age := frame - born
		if p.Lifetime > 0 && age >= p.Lifetime {
			continue
		}
		t := float64(age) / fps
		for k := 0; k < p.Rate; k++ {
			r := p.Radius * math.Sqrt((float64(k)+0.5)/float64(p.Rate))
			theta := goldenAngle * float64(k+born*p.Rate)
			start := mgl64.TransformCoordinate(mgl64.Vec3{r * math.Cos(theta), r * math.Sin(theta), 0}, transform)

			pos := start.Add(p.Velocity.Mul(t)).Add(g.Mul(0.5 * t * t))
			vel := p.Velocity.Add(g.Mul(t))
			out = append(out, emission.Particle{Pos: pos, Vel: vel})

			for c := 0; c < p.Children; c++ {
				a := 2 * math.Pi * float64(c) / float64(p.Children)
				off := mgl64.Vec3{p.ChildRadius * math.Cos(a), p.ChildRadius * math.Sin(a), 0}
				out = append(out, emission.Particle{
					Pos:        pos.Add(off),
					Vel:        vel,
					Child:      true,
					ChildIndex: c,
					ChildCount: p.Children,
				})
			}
		}
	}
	return out
}
