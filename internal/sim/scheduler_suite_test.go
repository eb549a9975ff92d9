package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
	"github.com/san-kum/smokesim/internal/scene"
	"github.com/san-kum/smokesim/internal/shadow"
)

func TestScheduler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scheduler Suite")
}

var _ = Describe("Scheduler", func() {
	var (
		ctx context.Context
		sc  *scene.Scene
	)

	BeforeEach(func() {
		ctx = context.Background()
		sc = scene.New()
		sc.Add(boxDomain())
	})

	newScheduler := func(eng engine.Engine, opts domain.Options) *Scheduler {
		s, err := New(sc, eng, testOptions(opts))
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	Describe("phases", func() {
		It("starts uninitialized and idles after the start frame", func() {
			s := newScheduler(nil, domain.Options{Resolution: 4})
			Expect(s.Phase()).To(Equal(Uninitialized))

			stats, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(Idle))
			Expect(stats.Frame).To(Equal(1))
			Expect(stats.Res()).To(Equal([3]int{4, 4, 4}))
		})

		It("re-initializes when the start frame is requested again", func() {
			sc.Add(smokeBox("smoke", zero, 0.5))
			s := newScheduler(nil, domain.Options{Resolution: 6})
			for f := 1; f <= 3; f++ {
				_, err := s.Advance(ctx, f)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(s.Domain().Grid.Density).To(ContainElement(BeNumerically(">", 0)))

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Time()).To(Equal(1))
			Expect(s.Domain().Grid.Density).To(HaveEach(BeZero()))
		})
	})

	Describe("a static floor collider", func() {
		It("occupies and empties the bottom slab after one frame", func() {
			const res = 10
			sc.Add(smokeBox("smoke", zero, 0.9))
			sc.Add(floorCollider(res))
			s := newScheduler(nil, domain.Options{Resolution: res})

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			stats, err := s.Advance(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Colliders).To(Equal(1))

			d := s.Domain()
			g := d.Grid
			Expect(d.BaseRes).To(Equal([3]int{res, res, res}))
			for y := 0; y < res; y++ {
				for x := 0; x < res; x++ {
					i := g.Index(x, y, d.ResMin[2])
					Expect(g.Obstacle[i] & grid.FlagOccupied).NotTo(BeZero())
					Expect(g.Obstacle[i] & grid.FlagStatic).NotTo(BeZero())
					Expect(g.Density[i]).To(BeZero())
				}
			}
			Expect(g.Density[g.Index(5, 5, 5)]).To(BeNumerically(">", 0))
			Expect(g.Obstacle[g.Index(5, 5, 5)]).To(BeZero())
		})
	})

	Describe("causality", func() {
		It("rejects a skipped frame without touching the domain", func() {
			s := newScheduler(nil, domain.Options{Resolution: 4})
			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			before := s.Domain().State

			_, err = s.Advance(ctx, 3)
			Expect(errors.Is(err, ErrNonCausalFrame)).To(BeTrue())
			Expect(s.Time()).To(Equal(1))
			Expect(s.Domain().State).To(Equal(before))
		})

		It("honours cancellation before mutating the grid", func() {
			s := newScheduler(nil, domain.Options{Resolution: 4})
			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err = s.Advance(cancelled, 2)
			Expect(err).To(MatchError(context.Canceled))
			Expect(s.Time()).To(Equal(1))
		})
	})

	Describe("the point cache", func() {
		It("restores simulated frames instead of stepping", func() {
			sc.Add(smokeBox("smoke", zero, 0.5))
			cache := newMemCache()
			s := newScheduler(nil, domain.Options{Resolution: 6}).WithCache(cache)

			for f := 1; f <= 3; f++ {
				_, err := s.Advance(ctx, f)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(cache.frames).To(HaveLen(3))
			density := append([]float64(nil), s.Domain().Grid.Density...)

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			writes := cache.writes

			stats, err := s.Advance(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Cached).To(BeTrue())
			Expect(s.Time()).To(Equal(3))
			Expect(s.Domain().Grid.Density).To(Equal(density))
			Expect(cache.writes).To(Equal(writes))
		})
	})

	Describe("allocation failure", func() {
		It("fails the reset and stays uninitialized", func() {
			cpu := engine.NewCPU()
			cpu.MaxCells = 100
			s := newScheduler(cpu, domain.Options{Resolution: 10})

			_, err := s.Advance(ctx, 1)
			Expect(errors.Is(err, domain.ErrAllocation)).To(BeTrue())
			var fe FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Phase).To(Equal("reset"))
			Expect(s.Phase()).To(Equal(Uninitialized))
		})

		It("keeps the last good grid when the adaptive window cannot grow", func() {
			sc.Add(smokeBox("smoke", zero, 0.5))
			cpu := engine.NewCPU()
			cpu.MaxCells = 8
			s := newScheduler(cpu, domain.Options{Resolution: 8, Adaptive: true, AdaptMargin: 1, AdaptThreshold: 0.01})

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			before := s.Domain().State
			g := s.Domain().Grid

			_, err = s.Advance(ctx, 2)
			var fe FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Phase).To(Equal("adapt"))
			Expect(errors.Is(err, domain.ErrAllocation)).To(BeTrue())
			Expect(s.Time()).To(Equal(1))
			Expect(s.Domain().State).To(Equal(before))
			Expect(s.Domain().Grid).To(BeIdenticalTo(g))
		})

		It("retries a failed frame as if it never ran", func() {
			movingScene := func() *scene.Scene {
				out := scene.New()
				out.Add(boxDomain())
				src := smokeBox("smoke", zero, 0.25)
				src.Flow.InitialVelocity = true
				src.Keyframes = []scene.Keyframe{
					{Frame: 0, Location: mgl64.Vec3{-0.5, 0, 0}, Scale: mgl64.Vec3{0.25, 0.25, 0.25}},
					{Frame: 5, Location: mgl64.Vec3{1, 0, 0}, Scale: mgl64.Vec3{0.25, 0.25, 0.25}},
				}
				out.Add(src)
				return out
			}
			opts := testOptions(domain.Options{Resolution: 12, Adaptive: true, AdaptMargin: 1, AdaptThreshold: 0.01})

			clean, err := New(movingScene(), nil, opts)
			Expect(err).NotTo(HaveOccurred())
			for f := 1; f <= 3; f++ {
				_, err := clean.Advance(ctx, f)
				Expect(err).NotTo(HaveOccurred())
			}

			cpu := engine.NewCPU()
			retried, err := New(movingScene(), cpu, opts)
			Expect(err).NotTo(HaveOccurred())
			for f := 1; f <= 2; f++ {
				_, err := retried.Advance(ctx, f)
				Expect(err).NotTo(HaveOccurred())
			}
			cpu.MaxCells = 1
			_, err = retried.Advance(ctx, 3)
			Expect(errors.Is(err, domain.ErrAllocation)).To(BeTrue())
			cpu.MaxCells = 0
			_, err = retried.Advance(ctx, 3)
			Expect(err).NotTo(HaveOccurred())

			Expect(retried.Domain().Res).To(Equal(clean.Domain().Res))
			Expect(retried.Domain().Grid.Density).To(Equal(clean.Domain().Grid.Density))
			Expect(retried.Domain().Grid.Vx).To(Equal(clean.Domain().Grid.Vx))
		})
	})

	Describe("adaptive domains", func() {
		It("skips obstacles and the solver while the window is a single cell", func() {
			sc.Add(floorCollider(8))
			s := newScheduler(nil, domain.Options{Resolution: 8, Adaptive: true, AdaptMargin: 1, AdaptThreshold: 0.01})

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			stats, err := s.Advance(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Cells).To(Equal(1))
			Expect(stats.Colliders).To(BeZero())
			Expect(s.Domain().Grid.Obstacle).To(HaveEach(BeZero()))
		})

		It("grows around an emitter", func() {
			sc.Add(smokeBox("smoke", zero, 0.25))
			s := newScheduler(nil, domain.Options{Resolution: 16, Adaptive: true, AdaptMargin: 2, AdaptThreshold: 0.01})

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			stats, err := s.Advance(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Resized).To(BeTrue())
			Expect(stats.Cells).To(BeNumerically(">", 1))
			Expect(stats.Cells).To(BeNumerically("<", 16*16*16))
			Expect(stats.TotalDensity).To(BeNumerically(">", 0))
		})
	})

	Describe("shadows", func() {
		It("keeps transmittance in [0, 1]", func() {
			sc.Add(smokeBox("smoke", zero, 0.5))
			sc.Lights = []shadow.Light{{Name: "lamp", Kind: shadow.Point, Position: mgl64.Vec3{0, 0, 3}}}
			s := newScheduler(nil, domain.Options{Resolution: 6})

			_, err := s.Advance(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Advance(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Domain().Grid.Shadow).To(HaveEach(And(BeNumerically(">=", 0), BeNumerically("<=", 1))))
			Expect(s.Domain().Grid.Shadow).To(ContainElement(BeNumerically("<", 1)))
		})
	})
})
