// Package grid holds the shared cell addressing used by every stage of the
// smoke controller.
//
// All 3D channels are stored flat with x varying fastest:
//
//	index = x + y*resX + z*resX*resY
//
// The formula is used by the engine, the emission maps, the obstacle
// voxelizer, the effector coupler and the shadow pass alike.
package grid

// Obstacle flag bits stored per cell.
const (
	FlagOccupied    uint8 = 1 << 0
	FlagHasVelocity uint8 = 1 << 1
	FlagStatic      uint8 = 1 << 3
)

// Index flattens (x, y, z) for a grid of resolution res.
func Index(x, y, z int, res [3]int) int {
	return x + y*res[0] + z*res[0]*res[1]
}

// Coords is the inverse of Index.
func Coords(i int, res [3]int) (x, y, z int) {
	slab := res[0] * res[1]
	z = i / slab
	r := i - z*slab
	y = r / res[0]
	x = r - y*res[0]
	return x, y, z
}

// Total returns the number of cells of res.
func Total(res [3]int) int {
	return res[0] * res[1] * res[2]
}

// InRange reports whether (x, y, z) addresses a cell of res.
func InRange(x, y, z int, res [3]int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < res[0] && y < res[1] && z < res[2]
}

// Scale multiplies every axis of res by block.
func Scale(res [3]int, block int) [3]int {
	return [3]int{res[0] * block, res[1] * block, res[2] * block}
}
