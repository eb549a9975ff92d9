package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an integer cell range [Min, Max) in absolute grid coordinates.
type Box struct {
	Min, Max [3]int
	valid    bool
}

// NewBox returns a box that is already initialized with the given corners.
func NewBox(min, max [3]int) Box {
	return Box{Min: min, Max: max, valid: true}
}

// Insert widens the box to contain p. The first point initializes it.
func (b *Box) Insert(p mgl64.Vec3) {
	if !b.valid {
		for i := 0; i < 3; i++ {
			b.Min[i] = int(math.Floor(p[i]))
			b.Max[i] = int(math.Ceil(p[i]))
		}
		b.valid = true
		return
	}
	for i := 0; i < 3; i++ {
		if p[i] < float64(b.Min[i]) {
			b.Min[i] = int(math.Floor(p[i]))
		}
		if p[i] > float64(b.Max[i]) {
			b.Max[i] = int(math.Ceil(p[i]))
		}
	}
}

// Valid reports whether at least one point was inserted.
func (b Box) Valid() bool { return b.valid }

func (b Box) Res() [3]int {
	return [3]int{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Total is the cell count, zero when any axis is empty.
func (b Box) Total() int {
	r := b.Res()
	if r[0] <= 0 || r[1] <= 0 || r[2] <= 0 {
		return 0
	}
	return Total(r)
}

func (b Box) Contains(x, y, z int) bool {
	return x >= b.Min[0] && x < b.Max[0] &&
		y >= b.Min[1] && y < b.Max[1] &&
		z >= b.Min[2] && z < b.Max[2]
}

// Local maps absolute cell coordinates to an index inside the box.
func (b Box) Local(x, y, z int) int {
	return Index(x-b.Min[0], y-b.Min[1], z-b.Min[2], b.Res())
}
