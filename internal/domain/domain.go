package domain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/emission"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
	"gonum.org/v1/gonum/floats"
)

type Options struct {
	// Resolution is the cell count along the longest axis.
	Resolution     int
	Adaptive       bool
	AdaptMargin    int
	AdaptThreshold float64
	HighRes        bool
	Amplify        int
}

// Domain is one simulated volume and the grids allocated for it.
type Domain struct {
	State

	Grid *engine.Grid
	High *engine.HighRes

	resolution int
	engine     engine.Engine
}

func New(eng engine.Engine, opts Options) (*Domain, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if eng == nil {
		eng = engine.GetEngine()
	}
	return &Domain{
		State: State{
			Adaptive:       opts.Adaptive,
			AdaptMargin:    opts.AdaptMargin,
			AdaptThreshold: opts.AdaptThreshold,
			HighRes:        opts.HighRes,
			Amplify:        opts.Amplify,
			ObMat:          mgl64.Ident4(),
			IMat:           mgl64.Ident4(),
		},
		resolution: opts.Resolution,
		engine:     eng,
	}, nil
}

func validateOptions(opts Options) error {
	if opts.Resolution < 1 {
		return fmt.Errorf("resolution must be positive, got %d", opts.Resolution)
	}
	if opts.AdaptMargin < 0 {
		return fmt.Errorf("adapt margin must not be negative, got %d", opts.AdaptMargin)
	}
	if opts.HighRes && opts.Amplify < 0 {
		return fmt.Errorf("amplify must not be negative, got %d", opts.Amplify)
	}
	return nil
}

// SetFromBounds places the domain on the local-space box [min, max] of an
// object with the given transform. With initResolution the base resolution
// is derived again from the longest scaled axis. It returns false and leaves
// the state untouched when any scaled extent is degenerate.
func (d *Domain) SetFromBounds(transform mgl64.Mat4, min, max mgl64.Vec3, initResolution bool) bool {
	size := max.Sub(min)
	scale := objectScale(transform)
	scaled := mgl64.Vec3{size[0] * scale[0], size[1] * scale[1], size[2] * scale[2]}
	for i := 0; i < 3; i++ {
		if scaled[i] < boundsEpsilon {
			return false
		}
	}

	baseRes := d.BaseRes
	longest := scaled[0]
	if initResolution {
		axis := 0
		for i := 1; i < 3; i++ {
			if scaled[i] > scaled[axis] {
				axis = i
			}
		}
		longest = scaled[axis]
		res := float64(d.resolution)
		for i := 0; i < 3; i++ {
			if i == axis {
				baseRes[i] = d.resolution
				continue
			}
			baseRes[i] = int(math.Max(math.Round(scaled[i]/longest*res), 4))
		}
	} else {
		if baseRes[0] < 1 || baseRes[1] < 1 || baseRes[2] < 1 {
			return false
		}
		longest = math.Max(scaled[0], math.Max(scaled[1], scaled[2]))
	}

	d.BaseRes = baseRes
	d.P0, d.P1, d.DP0 = min, max, min
	d.ObMat = transform
	d.IMat = transform.Inv()
	d.Dx = 1 / float64(d.resolution)
	d.Scale = longest
	for i := 0; i < 3; i++ {
		d.CellSize[i] = size[i] / float64(baseRes[i])
	}
	return true
}

// Reset sizes the domain from scratch and allocates its grids. Adaptive
// domains start as a single cell.
func (d *Domain) Reset(transform mgl64.Mat4, min, max mgl64.Vec3) error {
	prev := d.State
	if !d.SetFromBounds(transform, min, max, true) && d.BaseRes[0] < 1 {
		// degenerate with nothing to fall back on: a single cell
		d.BaseRes = [3]int{1, 1, 1}
		d.Dx = 1 / float64(d.resolution)
		d.CellSize = mgl64.Vec3{d.Dx, d.Dx, d.Dx}
		d.P0, d.DP0 = min, min
		d.P1 = min.Add(d.CellSize)
		d.ObMat = transform
		d.IMat = transform.Inv()
	}

	res := d.BaseRes
	if d.Adaptive {
		res = [3]int{1, 1, 1}
	}
	g, h, err := d.allocate(res)
	if err != nil {
		d.State = prev
		return err
	}

	d.Grid, d.High = g, h
	d.Res, d.ResMin, d.ResMax = res, [3]int{}, res
	d.TotalCells = grid.Total(res)
	d.Shift = [3]int{}
	d.ShiftF = mgl64.Vec3{0.5, 0.5, 0.5}
	d.PrevLoc = location(transform)
	return nil
}

func (d *Domain) allocate(res [3]int) (*engine.Grid, *engine.HighRes, error) {
	g, err := d.engine.Allocate(res, d.Dx)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate %v: %w", res, err)
	}
	if !d.HighRes {
		return g, nil, nil
	}
	h, err := d.engine.AllocateHighRes(res, d.Amplify)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate high resolution %v: %w", res, err)
	}
	return g, h, nil
}

// Refresh updates the domain from the object's current pose. In adaptive
// mode the object's motion since the last refresh is accumulated into the
// cell shift, and the change of the integer shift is returned.
func (d *Domain) Refresh(transform mgl64.Mat4, min, max mgl64.Vec3) [3]int {
	var newShift [3]int
	d.SetFromBounds(transform, min, max, false)
	if !d.Adaptive {
		return newShift
	}

	loc := location(transform)
	delta := d.IMat.Mat3().Mul3x1(loc.Sub(d.PrevLoc))
	d.PrevLoc = loc

	var total [3]int
	for i := 0; i < 3; i++ {
		d.ShiftF[i] += delta[i] / d.CellSize[i]
		total[i] = int(math.Floor(d.ShiftF[i]))
		newShift[i] = total[i] - d.Shift[i]
	}
	d.Shift = total

	for i := 0; i < 3; i++ {
		d.P0[i] = d.DP0[i] - d.CellSize[i]*(d.ShiftF[i]-float64(total[i])-0.5)
		d.P1[i] = d.P0[i] + d.CellSize[i]*float64(d.BaseRes[i])
	}
	return newShift
}

// AdjustResolution fits the allocated window around the cells holding
// content, the cells about to receive emission and a velocity dependent
// margin. The grid is reallocated when the window or the shift changed.
func (d *Domain) AdjustResolution(newShift [3]int, maps []*emission.Map, dt float64) (bool, error) {
	lo := [3]int{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	hi := [3]int{math.MinInt32, math.MinInt32, math.MinInt32}
	found := false
	insert := func(p [3]int) {
		found = true
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}

	g := d.Grid
	for z := 0; z < d.Res[2]; z++ {
		for y := 0; y < d.Res[1]; y++ {
			for x := 0; x < d.Res[0]; x++ {
				if d.cellContent(x, y, z) < d.AdaptThreshold {
					continue
				}
				insert([3]int{
					x + d.ResMin[0] - newShift[0],
					y + d.ResMin[1] - newShift[1],
					z + d.ResMin[2] - newShift[2],
				})
			}
		}
	}
	minVel := mgl64.Vec3{floats.Min(g.Vx), floats.Min(g.Vy), floats.Min(g.Vz)}
	maxVel := mgl64.Vec3{floats.Max(g.Vx), floats.Max(g.Vy), floats.Max(g.Vz)}

	for _, m := range maps {
		if m == nil {
			continue
		}
		b := m.Box
		for z := b.Min[2]; z < b.Max[2]; z++ {
			for y := b.Min[1]; y < b.Max[1]; y++ {
				for x := b.Min[0]; x < b.Max[0]; x++ {
					if m.Influence[b.Local(x, y, z)] >= d.AdaptThreshold {
						insert([3]int{x, y, z})
					}
				}
			}
		}
	}

	var box grid.Box
	if found {
		// hi is inclusive here; the margin below adds the exclusive cell.
		box = grid.NewBox(lo, hi)
		d.Space().Clamp(&box, &minVel, &maxVel, d.AdaptMargin+1, dt)
	}
	if !found || box.Total() == 0 {
		box = grid.NewBox([3]int{}, [3]int{1, 1, 1})
	}

	if box.Min == d.ResMin && box.Max == d.ResMax && newShift == [3]int{} {
		return false, nil
	}
	if err := d.Resize(box.Min, box.Max, newShift); err != nil {
		return false, err
	}
	return true, nil
}

// cellContent is max(density, fuel) of a coarse cell, falling back to the
// maximum over its high resolution block.
func (d *Domain) cellContent(x, y, z int) float64 {
	g := d.Grid
	i := g.Index(x, y, z)
	v := math.Max(g.Density[i], g.Fuel[i])
	if v >= d.AdaptThreshold || d.High == nil {
		return v
	}
	h := d.High
	block := h.Block()
	for k := 0; k < block; k++ {
		for j := 0; j < block; j++ {
			for l := 0; l < block; l++ {
				bi := grid.Index(x*block+l, y*block+j, z*block+k, h.Res)
				v = math.Max(v, math.Max(h.Density[bi], h.Fuel[bi]))
			}
		}
	}
	return v
}

// Resize reallocates the grids to the absolute window [min, max) and moves
// every cell that still fits, offset by shift. The state is left untouched
// when allocation fails.
func (d *Domain) Resize(min, max [3]int, shift [3]int) error {
	res := [3]int{max[0] - min[0], max[1] - min[1], max[2] - min[2]}
	g, h, err := d.allocate(res)
	if err != nil {
		return err
	}

	total := grid.Total(res)
	if d.TotalCells > 1 && total > 1 {
		d.migrate(g, h, min, shift)
	}

	d.Grid, d.High = g, h
	d.ResMin, d.ResMax, d.Res = min, max, res
	d.TotalCells = total
	return nil
}

func (d *Domain) migrate(g *engine.Grid, h *engine.HighRes, min, shift [3]int) {
	old, oldHigh := d.Grid, d.High
	for zo := 0; zo < d.Res[2]; zo++ {
		for yo := 0; yo < d.Res[1]; yo++ {
			for xo := 0; xo < d.Res[0]; xo++ {
				xn := xo + d.ResMin[0] - min[0] - shift[0]
				yn := yo + d.ResMin[1] - min[1] - shift[1]
				zn := zo + d.ResMin[2] - min[2] - shift[2]
				if !grid.InRange(xn, yn, zn, g.Res) {
					continue
				}
				g.CopyCell(g.Index(xn, yn, zn), old, old.Index(xo, yo, zo))

				if h == nil || oldHigh == nil {
					continue
				}
				block := h.Block()
				for k := 0; k < block; k++ {
					for j := 0; j < block; j++ {
						for i := 0; i < block; i++ {
							h.CopyCell(
								grid.Index(xn*block+i, yn*block+j, zn*block+k, h.Res),
								oldHigh,
								grid.Index(xo*block+i, yo*block+j, zo*block+k, oldHigh.Res),
							)
						}
					}
				}
			}
		}
	}
}

// Engine returns the engine that allocates this domain's grids.
func (d *Domain) Engine() engine.Engine { return d.engine }
