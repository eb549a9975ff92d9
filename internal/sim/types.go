package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/emission"
)

// ErrNonCausalFrame is returned when a frame is requested that does not
// directly follow the last simulated one.
var ErrNonCausalFrame = errors.New("frame does not follow the last simulated frame")

type Phase int

const (
	Uninitialized Phase = iota
	Idle
	Stepping
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Metric accumulates a value over the simulated frames.
type Metric interface {
	Name() string
	Observe(d *domain.Domain, stats FrameStats)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(d *domain.Domain, stats FrameStats)
}

// PointCache stores simulated frames. Read reports false on a miss.
type PointCache interface {
	Read(frame int) (*domain.Snapshot, bool, error)
	Write(frame int, s *domain.Snapshot) error
}

type Options struct {
	StartFrame int
	EndFrame   int
	FPS        float64
	TimeScale  float64

	Domain domain.Options

	Dissolve      bool
	DissolveSpeed int
	DissolveLog   bool

	Shadows         bool
	HighResSampling emission.Sampling
}

func DefaultOptions() Options {
	return Options{
		StartFrame:    1,
		EndFrame:      250,
		FPS:           25,
		TimeScale:     1,
		Domain:        domain.Options{Resolution: 32, AdaptMargin: 4, AdaptThreshold: 0.02, Amplify: 1},
		DissolveSpeed: 5,
		Shadows:       true,
	}
}

// FrameError reports a frame that could not be simulated.
type FrameError struct {
	Frame int
	Time  float64
	Phase string
	Err   error
}

func (e FrameError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f) %s: %v", e.Frame, e.Time, e.Phase, e.Err)
}

func (e FrameError) Unwrap() error { return e.Err }

// FrameStats describes one advanced frame. The csv tags are the column
// names of the run store's frame table.
type FrameStats struct {
	Frame        int           `csv:"frame" json:"frame"`
	Time         float64       `csv:"time" json:"time"`
	Dt           float64       `csv:"dt" json:"dt"`
	Cached       bool          `csv:"cached" json:"cached"`
	ResX         int           `csv:"res_x" json:"res_x"`
	ResY         int           `csv:"res_y" json:"res_y"`
	ResZ         int           `csv:"res_z" json:"res_z"`
	Cells        int           `csv:"cells" json:"cells"`
	Resized      bool          `csv:"resized" json:"resized"`
	Emitters     int           `csv:"emitters" json:"emitters"`
	Colliders    int           `csv:"colliders" json:"colliders"`
	CFLSubsteps  int           `csv:"cfl_substeps" json:"cfl_substeps"`
	MaxVelocity  float64       `csv:"max_velocity" json:"max_velocity"`
	TotalDensity float64       `csv:"total_density" json:"total_density"`
	Elapsed      time.Duration `csv:"-" json:"-"`
	ElapsedMS    float64       `csv:"elapsed_ms" json:"elapsed_ms"`
}

func (s FrameStats) Res() [3]int { return [3]int{s.ResX, s.ResY, s.ResZ} }

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.Float64("time", s.Time),
		slog.Bool("cached", s.Cached),
		slog.Any("res", s.Res()),
		slog.Int("cells", s.Cells),
		slog.Bool("resized", s.Resized),
		slog.Int("emitters", s.Emitters),
		slog.Int("colliders", s.Colliders),
		slog.Int("cfl_substeps", s.CFLSubsteps),
		slog.Float64("max_velocity", s.MaxVelocity),
		slog.Float64("total_density", s.TotalDensity),
		slog.Duration("elapsed", s.Elapsed),
	)
}
