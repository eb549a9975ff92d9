package engine

// Dissolve fades density by one frame's worth. With logarithmic set density
// decays by the factor 1-1/speed, otherwise it drops linearly by 1/speed.
// Colour is scaled along with density so the hue is preserved.
func Dissolve(g *Grid, speed int, logarithmic bool) {
	if g == nil || speed <= 0 {
		return
	}
	dissolve(g.Density, [][]float64{g.ColorR, g.ColorG, g.ColorB}, speed, logarithmic)
}

func DissolveHighRes(h *HighRes, speed int, logarithmic bool) {
	if h == nil || speed <= 0 {
		return
	}
	dissolve(h.Density, [][]float64{h.ColorR, h.ColorG, h.ColorB}, speed, logarithmic)
}

func dissolve(density []float64, color [][]float64, speed int, logarithmic bool) {
	step := 1 / float64(speed)
	for i, d := range density {
		if d <= 0 {
			continue
		}
		var next float64
		if logarithmic {
			next = d * (1 - step)
		} else {
			next = d - step
		}
		if next < 0 {
			next = 0
		}
		density[i] = next
		for _, c := range color {
			c[i] *= next / d
		}
	}
}
