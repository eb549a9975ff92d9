package shadow

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/engine"
	"github.com/san-kum/smokesim/internal/grid"
)

type countingReader struct {
	data  []float64
	reads int
}

func (c *countingReader) Density(i int) float64 {
	c.reads++
	return c.data[i]
}

// rowSpace maps world x in [0,1] onto n cells of a 1x1 row.
func rowSpace(n int) grid.Space {
	cs := 1 / float64(n)
	return grid.Space{
		ObMat:    mgl64.Ident4(),
		IMat:     mgl64.Ident4(),
		CellSize: mgl64.Vec3{cs, cs, cs},
		Dx:       cs,
		BaseRes:  [3]int{n, 1, 1},
		Res:      [3]int{n, 1, 1},
	}
}

func TestSelectLight(t *testing.T) {
	tests := []struct {
		name   string
		lights []Light
		want   string
		ok     bool
	}{
		{"none", nil, "", false},
		{"first when no point", []Light{{Name: "sun", Kind: Sun}, {Name: "spot", Kind: Spot}}, "sun", true},
		{"point preferred", []Light{{Name: "sun", Kind: Sun}, {Name: "lamp", Kind: Point}}, "lamp", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ok := SelectLight(tt.lights)
			if ok != tt.ok || l.Name != tt.want {
				t.Errorf("expected %q/%v, got %q/%v", tt.want, tt.ok, l.Name, ok)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	tests := []struct {
		from, to [3]int
		steps    int
	}{
		{[3]int{0, 0, 0}, [3]int{0, 0, 0}, 1},
		{[3]int{6, 0, 0}, [3]int{0, 0, 0}, 7},
		{[3]int{0, 0, 0}, [3]int{3, 5, -2}, 6},
		{[3]int{2, 9, 4}, [3]int{0, 0, 7}, 10},
	}
	for _, tt := range tests {
		var cells [][3]int
		Walk(tt.from, tt.to, func(c [3]int) { cells = append(cells, c) })

		if len(cells) != tt.steps {
			t.Errorf("%v->%v: expected %d cells, got %d", tt.from, tt.to, tt.steps, len(cells))
			continue
		}
		if cells[0] != tt.from || cells[len(cells)-1] != tt.to {
			t.Errorf("%v->%v: expected endpoints, got %v..%v", tt.from, tt.to, cells[0], cells[len(cells)-1])
		}
		for i := 1; i < len(cells); i++ {
			for k := 0; k < 3; k++ {
				if d := cells[i][k] - cells[i-1][k]; d < -1 || d > 1 {
					t.Errorf("%v->%v: jump between %v and %v", tt.from, tt.to, cells[i-1], cells[i])
				}
			}
		}
	}
}

// An opaque cell between the light and five more cells on the same line:
// the first ray reads the two cells up to the opaque one and fills the rest
// without reading density again.
func TestOpaqueCellMemoizesRestOfLine(t *testing.T) {
	const n = 7
	g, _ := engine.NewGrid([3]int{n, 1, 1}, 1.0/n)
	g.Density[5] = 20

	reader := &countingReader{data: g.Density}
	rm := &Raymarcher{Reader: reader}
	rm.Compute(rowSpace(n), g, mgl64.Vec3{2, 0.5 / n, 0.5 / n})

	if reader.reads != 2 {
		t.Errorf("expected 2 density reads, got %d", reader.reads)
	}
	if g.Shadow[6] != 1 {
		t.Errorf("expected full transmittance before the opaque cell, got %v", g.Shadow[6])
	}
	want := math.Exp(-20)
	for x := 0; x <= 5; x++ {
		if math.Abs(g.Shadow[x]-want) > 1e-15 {
			t.Errorf("cell %d: expected %v, got %v", x, want, g.Shadow[x])
		}
	}
}

func TestTransmittanceNonIncreasingAwayFromLight(t *testing.T) {
	const n = 8
	g, _ := engine.NewGrid([3]int{n, 1, 1}, 1.0/n)
	for i := range g.Density {
		g.Density[i] = 0.5 + 0.1*float64(i%3)
	}

	var rm Raymarcher
	rm.Compute(rowSpace(n), g, mgl64.Vec3{3, 0.5 / n, 0.5 / n})

	for x := 0; x < n-1; x++ {
		if g.Shadow[x] > g.Shadow[x+1] {
			t.Errorf("expected shadow[%d]=%v <= shadow[%d]=%v", x, g.Shadow[x], x+1, g.Shadow[x+1])
		}
	}
	for x, s := range g.Shadow {
		if s < 0 || s > 1 {
			t.Errorf("cell %d: transmittance %v out of range", x, s)
		}
	}
}

func TestLightInsideDomain(t *testing.T) {
	const n = 5
	g, _ := engine.NewGrid([3]int{n, n, n}, 1.0/n)
	for i := range g.Density {
		g.Density[i] = 1
	}
	space := rowSpace(n)
	space.BaseRes = g.Res
	space.Res = g.Res

	var rm Raymarcher
	rm.Compute(space, g, mgl64.Vec3{0.5, 0.5, 0.5})

	centre := g.Index(2, 2, 2)
	corner := g.Index(0, 0, 0)
	if g.Shadow[centre] <= g.Shadow[corner] {
		t.Errorf("expected centre %v brighter than corner %v", g.Shadow[centre], g.Shadow[corner])
	}
	for i, s := range g.Shadow {
		if s < 0 {
			t.Fatalf("cell %d left uncomputed", i)
		}
	}
}
