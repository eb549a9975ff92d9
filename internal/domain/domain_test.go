package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/emission"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
)

var (
	origin = mgl64.Vec3{0, 0, 0}
	unit   = mgl64.Vec3{1, 1, 1}
)

func newDomain(t *testing.T, eng engine.Engine, opts Options) *Domain {
	t.Helper()
	d, err := New(eng, opts)
	if err != nil {
		t.Fatalf("new domain failed: %v", err)
	}
	return d
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []Options{
		{Resolution: 0},
		{Resolution: 8, AdaptMargin: -1},
		{Resolution: 8, HighRes: true, Amplify: -1},
	}
	for _, opts := range tests {
		if _, err := New(nil, opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}

func TestSetFromBoundsResolution(t *testing.T) {
	tests := []struct {
		name      string
		transform mgl64.Mat4
		max       mgl64.Vec3
		res       int
		want      [3]int
	}{
		{"box", mgl64.Ident4(), mgl64.Vec3{2, 1, 0.5}, 32, [3]int{32, 16, 8}},
		{"scaled", mgl64.Scale3D(2, 1, 1), unit, 32, [3]int{32, 16, 16}},
		{"thin", mgl64.Ident4(), mgl64.Vec3{1, 0.05, 1}, 20, [3]int{20, 4, 20}},
		{"tall", mgl64.Ident4(), mgl64.Vec3{1, 3, 1}, 30, [3]int{10, 30, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDomain(t, nil, Options{Resolution: tt.res})
			if !d.SetFromBounds(tt.transform, origin, tt.max, true) {
				t.Fatal("expected bounds to be accepted")
			}
			if d.BaseRes != tt.want {
				t.Errorf("expected base resolution %v, got %v", tt.want, d.BaseRes)
			}
			if d.Dx != 1/float64(tt.res) {
				t.Errorf("expected dx %v, got %v", 1/float64(tt.res), d.Dx)
			}
			for i := 0; i < 3; i++ {
				want := tt.max[i] / float64(tt.want[i])
				if math.Abs(d.CellSize[i]-want) > 1e-12 {
					t.Errorf("axis %d: expected cell size %v, got %v", i, want, d.CellSize[i])
				}
			}
		})
	}
}

func TestSetFromBoundsDegenerate(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8})
	if !d.SetFromBounds(mgl64.Ident4(), origin, unit, true) {
		t.Fatal("expected unit box to be accepted")
	}
	before := d.State

	if d.SetFromBounds(mgl64.Ident4(), origin, mgl64.Vec3{1, 1, 0}, true) {
		t.Error("expected flat box to be rejected")
	}
	if d.SetFromBounds(mgl64.Scale3D(1, 0, 1), origin, unit, false) {
		t.Error("expected zero scale to be rejected")
	}
	if d.State != before {
		t.Error("expected state to be untouched by degenerate bounds")
	}
}

func TestResetAdaptiveStartsAsSingleCell(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 16, Adaptive: true, AdaptMargin: 2})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if d.Res != [3]int{1, 1, 1} || d.TotalCells != 1 {
		t.Errorf("expected a single cell, got res %v total %d", d.Res, d.TotalCells)
	}
	if d.BaseRes != [3]int{16, 16, 16} {
		t.Errorf("expected base resolution 16^3, got %v", d.BaseRes)
	}
	if d.ShiftF != (mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Errorf("expected half-cell fractional shift, got %v", d.ShiftF)
	}
	if d.Space().AdaptMargin != 2 {
		t.Errorf("expected adapt margin 2 in space, got %d", d.Space().AdaptMargin)
	}
}

func TestResetDegenerateFallsBackToSingleCell(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8})
	if err := d.Reset(mgl64.Ident4(), origin, origin); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if d.BaseRes != [3]int{1, 1, 1} || d.TotalCells != 1 {
		t.Errorf("expected single cell domain, got %v", d.BaseRes)
	}
}

func TestRefreshShift(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8, Adaptive: true})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	shift := d.Refresh(mgl64.Translate3D(0.125, 0, 0), origin, unit)
	if shift != [3]int{1, 0, 0} {
		t.Errorf("expected shift [1 0 0] after one cell of motion, got %v", shift)
	}
	if d.Shift != [3]int{1, 0, 0} {
		t.Errorf("expected total shift [1 0 0], got %v", d.Shift)
	}
	if math.Abs(d.P0[0]) > 1e-12 {
		t.Errorf("expected origin to stay on the cell lattice, got %v", d.P0)
	}
	if math.Abs(d.P1[0]-1) > 1e-12 {
		t.Errorf("expected far corner 1, got %v", d.P1[0])
	}

	shift = d.Refresh(mgl64.Translate3D(0.125, 0, 0), origin, unit)
	if shift != [3]int{} {
		t.Errorf("expected no shift without motion, got %v", shift)
	}
}

func TestRefreshStaticDomain(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if shift := d.Refresh(mgl64.Translate3D(3, 0, 0), origin, unit); shift != [3]int{} {
		t.Errorf("expected static domain never to shift, got %v", shift)
	}
	if d.BaseRes != [3]int{8, 8, 8} {
		t.Errorf("expected refresh to keep resolution, got %v", d.BaseRes)
	}
}

func TestResizePreservesCells(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 4})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	d.Grid.Density[d.Grid.Index(1, 2, 3)] = 0.7
	d.Grid.Obstacle[d.Grid.Index(1, 2, 3)] = grid.FlagOccupied

	if err := d.Resize([3]int{-1, -1, -1}, [3]int{5, 5, 5}, [3]int{}); err != nil {
		t.Fatalf("grow failed: %v", err)
	}
	if d.Res != [3]int{6, 6, 6} || d.TotalCells != 216 {
		t.Fatalf("expected 6^3 window, got %v", d.Res)
	}
	i := d.Grid.Index(2, 3, 4)
	if d.Grid.Density[i] != 0.7 || d.Grid.Obstacle[i] != grid.FlagOccupied {
		t.Errorf("expected cell to follow the window, got density %v flags %d", d.Grid.Density[i], d.Grid.Obstacle[i])
	}

	if err := d.Resize([3]int{}, [3]int{4, 4, 4}, [3]int{}); err != nil {
		t.Fatalf("shrink failed: %v", err)
	}
	if got := d.Grid.Density[d.Grid.Index(1, 2, 3)]; got != 0.7 {
		t.Errorf("expected round trip to restore density 0.7, got %v", got)
	}
}

func TestResizeShift(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 4})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	d.Grid.Density[d.Grid.Index(1, 2, 3)] = 0.5
	d.Grid.Density[d.Grid.Index(0, 0, 0)] = 0.9

	if err := d.Resize([3]int{}, [3]int{4, 4, 4}, [3]int{1, 0, 0}); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	if got := d.Grid.Density[d.Grid.Index(0, 2, 3)]; got != 0.5 {
		t.Errorf("expected shifted cell at x=0, got %v", got)
	}
	var total float64
	for _, v := range d.Grid.Density {
		total += v
	}
	if total != 0.5 {
		t.Errorf("expected the cell shifted out of the window to be dropped, total %v", total)
	}
}

func TestResizeHighRes(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 4, HighRes: true, Amplify: 1})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if d.High == nil || d.High.Res != [3]int{8, 8, 8} {
		t.Fatalf("expected 8^3 high resolution grid")
	}
	d.High.Density[grid.Index(3, 2, 1, d.High.Res)] = 0.25

	if err := d.Resize([3]int{-1, 0, 0}, [3]int{4, 4, 4}, [3]int{}); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	if d.High.Res != [3]int{10, 8, 8} {
		t.Fatalf("expected 10x8x8 high resolution grid, got %v", d.High.Res)
	}
	if got := d.High.Density[grid.Index(5, 2, 1, d.High.Res)]; got != 0.25 {
		t.Errorf("expected fine cell to move with its block, got %v", got)
	}
}

func TestAdjustResolutionCollapsesWhenEmpty(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8, Adaptive: true, AdaptMargin: 2, AdaptThreshold: 0.01})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := d.Resize([3]int{}, [3]int{4, 4, 4}, [3]int{}); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	for i := range d.Grid.Density {
		d.Grid.Density[i] = 0.001
	}

	changed, err := d.AdjustResolution([3]int{}, nil, 0.1)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if !changed {
		t.Error("expected the window to change")
	}
	if d.Res != [3]int{1, 1, 1} || d.TotalCells != 1 {
		t.Errorf("expected collapse to one cell, got %v", d.Res)
	}
	if d.ResMin != [3]int{} {
		t.Errorf("expected window at the origin, got %v", d.ResMin)
	}
}

func TestAdjustResolutionFollowsEmission(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8, Adaptive: true, AdaptMargin: 2, AdaptThreshold: 0.01})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	m := emission.NewMap(grid.NewBox([3]int{3, 3, 3}, [3]int{5, 5, 5}), false)
	for i := range m.Influence {
		m.Influence[i] = 1
	}

	changed, err := d.AdjustResolution([3]int{}, []*emission.Map{m}, 0.1)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if !changed {
		t.Fatal("expected the window to grow")
	}
	if d.ResMin != [3]int{0, 0, 0} || d.ResMax != [3]int{7, 7, 7} {
		t.Errorf("expected window [0,7), got [%v,%v)", d.ResMin, d.ResMax)
	}

	changed, err = d.AdjustResolution([3]int{}, []*emission.Map{m}, 0.1)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if changed {
		t.Error("expected an unchanged window to skip reallocation")
	}
}

func TestAdjustResolutionClampsToMargin(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 8, Adaptive: true, AdaptMargin: 1, AdaptThreshold: 0.01})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	m := emission.NewMap(grid.NewBox([3]int{0, 0, 0}, [3]int{8, 8, 8}), false)
	for i := range m.Influence {
		m.Influence[i] = 1
	}
	if _, err := d.AdjustResolution([3]int{}, []*emission.Map{m}, 0.1); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if d.ResMin != [3]int{-1, -1, -1} || d.ResMax != [3]int{9, 9, 9} {
		t.Errorf("expected window clamped to [-1,9), got [%v,%v)", d.ResMin, d.ResMax)
	}
}

func TestAllocationFailureKeepsState(t *testing.T) {
	cpu := engine.NewCPU()
	cpu.MaxCells = 100

	d := newDomain(t, cpu, Options{Resolution: 8})
	err := d.Reset(mgl64.Ident4(), origin, unit)
	if !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if d.Grid != nil || d.BaseRes != [3]int{} {
		t.Errorf("expected untouched state, got base resolution %v", d.BaseRes)
	}

	a := newDomain(t, cpu, Options{Resolution: 8, Adaptive: true})
	if err := a.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	g := a.Grid
	err = a.Resize([3]int{}, [3]int{8, 8, 8}, [3]int{})
	if !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if a.Grid != g || a.Res != [3]int{1, 1, 1} {
		t.Errorf("expected grids to survive a failed resize, got res %v", a.Res)
	}
}

func TestSnapshotRestore(t *testing.T) {
	d := newDomain(t, nil, Options{Resolution: 4})
	if err := d.Reset(mgl64.Ident4(), origin, unit); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	d.Grid.Density[5] = 0.3
	snap := d.Snapshot()

	d.Grid.Density[5] = 0.9
	if snap.Grid.Density[5] != 0.3 {
		t.Errorf("expected snapshot to be a deep copy, got %v", snap.Grid.Density[5])
	}

	d.Restore(snap)
	if d.Grid.Density[5] != 0.3 {
		t.Errorf("expected restored density 0.3, got %v", d.Grid.Density[5])
	}
	d.Grid.Density[5] = 0.1
	if snap.Grid.Density[5] != 0.3 {
		t.Error("expected restore to copy the snapshot")
	}
}
