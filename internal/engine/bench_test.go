package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func benchGrid(b *testing.B, n int) *Grid {
	b.Helper()
	g, err := NewCPU().Allocate([3]int{n, n, n}, 1/float64(n))
	if err != nil {
		b.Fatalf("allocate failed: %v", err)
	}
	for z := n / 4; z < n/2; z++ {
		for y := n / 4; y < 3*n/4; y++ {
			for x := n / 4; x < 3*n/4; x++ {
				i := g.Index(x, y, z)
				g.Density[i] = 1
				g.Heat[i] = 1
			}
		}
	}
	return g
}

func benchmarkStep(b *testing.B, n int) {
	eng := NewCPU()
	g := benchGrid(b, n)
	gravity := mgl64.Vec3{0, 0, -9.81 * float64(n)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.Step(g, gravity, 0.1)
	}
}

func BenchmarkStep16(b *testing.B) { benchmarkStep(b, 16) }
func BenchmarkStep32(b *testing.B) { benchmarkStep(b, 32) }
func BenchmarkStep64(b *testing.B) { benchmarkStep(b, 64) }

func BenchmarkStepHighRes(b *testing.B) {
	eng := NewCPU()
	g := benchGrid(b, 16)
	h, err := eng.AllocateHighRes(g.Res, 1)
	if err != nil {
		b.Fatalf("allocate failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.StepHighRes(h, g, 0.1)
	}
}

func BenchmarkDissolve(b *testing.B) {
	g := benchGrid(b, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dissolve(g, 25, true)
	}
}
