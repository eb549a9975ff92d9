package shadow

// Walk visits the cells of the 3D digital line from `from` to `to`, both
// included, stepping one cell at a time along the axis of largest extent.
func Walk(from, to [3]int, visit func(cell [3]int)) {
	var d, inc [3]int
	for i := 0; i < 3; i++ {
		d[i] = to[i] - from[i]
		inc[i] = 1
		if d[i] < 0 {
			inc[i] = -1
			d[i] = -d[i]
		}
	}

	major := 0
	if d[1] > d[major] {
		major = 1
	}
	if d[2] > d[major] {
		major = 2
	}
	a, b := (major+1)%3, (major+2)%3

	cell := from
	errA := 2*d[a] - d[major]
	errB := 2*d[b] - d[major]
	for i := 0; i < d[major]; i++ {
		visit(cell)
		if errA > 0 {
			cell[a] += inc[a]
			errA -= 2 * d[major]
		}
		if errB > 0 {
			cell[b] += inc[b]
			errB -= 2 * d[major]
		}
		errA += 2 * d[a]
		errB += 2 * d[b]
		cell[major] += inc[major]
	}
	visit(cell)
}
