package viz

import (
	"fmt"

	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x":
		return AxisX, nil
	case "y", "":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis: %s", s)
}

// Next cycles x, y, z.
func (a Axis) Next() Axis { return (a + 1) % 3 }

// Slice is a 2D image of one channel. Row 0 is the top of the picture,
// so for the x and y axes it holds the highest z layer.
type Slice struct {
	Channel  string
	Axis     Axis
	Width    int
	Height   int
	Values   []float64
	Obstacle []bool
	Max      float64
}

func (s *Slice) At(col, row int) float64 { return s.Values[row*s.Width+col] }

// Normalized returns the value at (col, row) scaled to [0, 1] by Max.
func (s *Slice) Normalized(col, row int) float64 {
	if s.Max <= 0 {
		return 0
	}
	return min(max(s.At(col, row)/s.Max, 0), 1)
}

// plane maps picture coordinates and a depth along the axis to a cell.
func plane(res [3]int, axis Axis) (w, h, depth int, cell func(col, row, d int) (x, y, z int)) {
	switch axis {
	case AxisX:
		return res[1], res[2], res[0], func(c, r, d int) (int, int, int) { return d, c, res[2] - 1 - r }
	case AxisY:
		return res[0], res[2], res[1], func(c, r, d int) (int, int, int) { return c, d, res[2] - 1 - r }
	default:
		return res[0], res[1], res[2], func(c, r, d int) (int, int, int) { return c, res[1] - 1 - r, d }
	}
}

func channel(g *engine.Grid, name string) ([]float64, error) {
	for _, c := range g.Channels() {
		if c.Name == name {
			return c.Data, nil
		}
	}
	return nil, fmt.Errorf("unknown channel: %s", name)
}

// Project keeps the largest value of the named channel along axis.
func Project(g *engine.Grid, name string, axis Axis) (*Slice, error) {
	return reduce(g, name, axis, -1)
}

// Cut takes the single layer at index along axis. The index is clamped
// to the grid.
func Cut(g *engine.Grid, name string, axis Axis, index int) (*Slice, error) {
	return reduce(g, name, axis, max(index, 0))
}

func reduce(g *engine.Grid, name string, axis Axis, layer int) (*Slice, error) {
	if g == nil {
		return nil, fmt.Errorf("no grid")
	}
	data, err := channel(g, name)
	if err != nil {
		return nil, err
	}
	w, h, depth, cell := plane(g.Res, axis)
	s := &Slice{
		Channel:  name,
		Axis:     axis,
		Width:    w,
		Height:   h,
		Values:   make([]float64, w*h),
		Obstacle: make([]bool, w*h),
	}
	lo, hi := 0, depth
	if layer >= 0 {
		lo = min(layer, depth-1)
		hi = lo + 1
	}
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			i := r*w + c
			for d := lo; d < hi; d++ {
				x, y, z := cell(c, r, d)
				idx := g.Index(x, y, z)
				s.Values[i] = max(s.Values[i], data[idx])
				if g.Obstacle[idx]&grid.FlagOccupied != 0 {
					s.Obstacle[i] = true
				}
			}
			s.Max = max(s.Max, s.Values[i])
		}
	}
	return s, nil
}
