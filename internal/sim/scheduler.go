// Package sim drives a smoke domain through the frames of a scene: it
// sizes the grid, gathers emitters, colliders and force fields, and hands
// each frame to the fluid engine.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/effector"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/scene"
	"github.com/san-kum/smokesim/internal/shadow"
)

// Scheduler advances one domain frame by frame. It is not safe for
// concurrent use.
type Scheduler struct {
	scene  *scene.Scene
	dom    *domain.Domain
	domObj *scene.Object
	opts   Options

	cache     PointCache
	coupler   *effector.Coupler
	raymarch  shadow.Raymarcher
	log       *slog.Logger
	metrics   []Metric
	observers []Observer

	phase Phase
	time  int
	last  FrameStats
}

func New(sc *scene.Scene, eng engine.Engine, opts Options) (*Scheduler, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	domObj, err := sc.Domain()
	if err != nil {
		return nil, err
	}
	dom, err := domain.New(eng, opts.Domain)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		scene:     sc,
		dom:       dom,
		domObj:    domObj,
		opts:      opts,
		coupler:   effector.NewCoupler(sc.Fields...),
		log:       slog.Default(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func validateOptions(opts Options) error {
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", opts.FPS)
	}
	if opts.TimeScale <= 0 {
		return fmt.Errorf("time scale must be positive, got %f", opts.TimeScale)
	}
	if opts.EndFrame < opts.StartFrame {
		return fmt.Errorf("end frame %d before start frame %d", opts.EndFrame, opts.StartFrame)
	}
	if opts.Dissolve && opts.DissolveSpeed < 1 {
		return fmt.Errorf("dissolve speed must be at least 1, got %d", opts.DissolveSpeed)
	}
	return nil
}

func (s *Scheduler) WithLogger(l *slog.Logger) *Scheduler {
	if l != nil {
		s.log = l
	}
	return s
}

func (s *Scheduler) WithCache(c PointCache) *Scheduler {
	s.cache = c
	return s
}

func (s *Scheduler) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Scheduler) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Scheduler) Domain() *domain.Domain { return s.dom }
func (s *Scheduler) Phase() Phase           { return s.phase }
func (s *Scheduler) Options() Options       { return s.opts }

// Time is the last frame held by the domain.
func (s *Scheduler) Time() int { return s.time }

// Dt is the solver timestep of one frame.
func (s *Scheduler) Dt() float64 { return s.baseDt() * s.opts.TimeScale }

func (s *Scheduler) baseDt() float64 { return 0.1 * 25 / s.opts.FPS }

// Advance brings the domain to frame. The start frame always resets the
// domain. Cached frames are restored, any other frame must directly follow
// the last simulated one.
func (s *Scheduler) Advance(ctx context.Context, frame int) (FrameStats, error) {
	frame = min(max(frame, s.opts.StartFrame), s.opts.EndFrame)

	if frame == s.opts.StartFrame || s.phase == Uninitialized {
		if err := s.reset(); err != nil {
			return FrameStats{}, FrameError{Frame: s.opts.StartFrame, Phase: "reset", Err: err}
		}
		if frame == s.opts.StartFrame {
			return s.last, nil
		}
	}

	if s.cache != nil {
		snap, ok, err := s.cache.Read(frame)
		if err != nil {
			return FrameStats{}, FrameError{Frame: frame, Time: s.seconds(frame), Phase: "cache", Err: err}
		}
		if ok {
			s.dom.Restore(snap)
			s.time = frame
			s.last = s.collect(frame, 0)
			s.last.Cached = true
			s.log.Debug("frame restored from cache", "frame", frame)
			return s.last, nil
		}
	}

	if frame == s.time {
		return s.last, nil
	}
	if frame != s.time+1 {
		return FrameStats{}, fmt.Errorf("%w: requested %d, last simulated %d", ErrNonCausalFrame, frame, s.time)
	}

	select {
	case <-ctx.Done():
		return FrameStats{}, ctx.Err()
	default:
	}

	began := time.Now()
	s.phase = Stepping
	stats, err := s.step(frame)
	s.phase = Idle
	if err != nil {
		return FrameStats{}, err
	}
	s.time = frame
	stats.Elapsed = time.Since(began)
	stats.ElapsedMS = float64(stats.Elapsed.Microseconds()) / 1000

	if s.cache != nil {
		if err := s.cache.Write(frame, s.dom.Snapshot()); err != nil {
			s.log.Warn("cache write failed", "frame", frame, "err", err)
		}
	}

	for _, m := range s.metrics {
		m.Observe(s.dom, stats)
	}
	for _, obs := range s.observers {
		obs.OnFrame(s.dom, stats)
	}
	s.last = stats
	s.log.Debug("frame simulated", "stats", stats)
	return stats, nil
}

// Run advances every frame from the start frame to the end frame and
// returns their statistics.
func (s *Scheduler) Run(ctx context.Context) ([]FrameStats, error) {
	for _, m := range s.metrics {
		m.Reset()
	}
	out := make([]FrameStats, 0, s.opts.EndFrame-s.opts.StartFrame+1)
	for frame := s.opts.StartFrame; frame <= s.opts.EndFrame; frame++ {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		stats, err := s.Advance(ctx, frame)
		if err != nil {
			return out, err
		}
		out = append(out, stats)
	}
	return out, nil
}

// Metrics returns the current value of every registered metric.
func (s *Scheduler) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Scheduler) reset() error {
	start := s.opts.StartFrame
	lo, hi, ok := s.domObj.Bounds()
	if !ok {
		return fmt.Errorf("domain %q has no bounds", s.domObj.Name)
	}
	if err := s.dom.Reset(s.domObj.Matrix(float64(start)), lo, hi); err != nil {
		return err
	}
	s.scene.ResetMotion()
	s.time = start
	s.phase = Idle
	s.last = s.collect(start, 0)

	if s.cache != nil {
		if err := s.cache.Write(start, s.dom.Snapshot()); err != nil {
			s.log.Warn("cache write failed", "frame", start, "err", err)
		}
	}
	s.log.Info("domain reset", "frame", start, "base_res", s.dom.BaseRes, "res", s.dom.Res)
	return nil
}

func (s *Scheduler) seconds(frame int) float64 {
	return float64(frame-s.opts.StartFrame) / s.opts.FPS
}
