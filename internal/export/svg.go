package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/smokesim/internal/viz"
)

// SliceToSVG draws s as a heatmap with one square of cell pixels per grid
// cell, coloured along the theme ramp.
func SliceToSVG(s *viz.Slice, cell float64, theme viz.Theme) string {
	if s == nil || s.Width == 0 || s.Height == 0 {
		return ""
	}
	width := float64(s.Width) * cell
	height := float64(s.Height) * cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g shape-rendering="crispEdges">
`, width, height, width, height, theme.Background))

	for row := 0; row < s.Height; row++ {
		for col := 0; col < s.Width; col++ {
			var fill string
			if s.Obstacle[row*s.Width+col] {
				fill = string(theme.Obstacle)
			} else {
				v := s.Normalized(col, row)
				if v <= 0 {
					continue
				}
				fill = string(viz.Ramp(theme, v))
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(col)*cell, float64(row)*cell, cell, cell, fill))
		}
	}

	sb.WriteString(fmt.Sprintf(`</g>
<text x="4" y="14" font-family="monospace" font-size="12" fill="%s">%s along %s, max %.3g</text>
</svg>`, theme.Text, s.Channel, s.Axis, s.Max))
	return sb.String()
}

// SeriesToSVG creates a line chart of ys against xs.
func SeriesToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
