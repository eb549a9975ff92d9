package engine

import (
	"fmt"

	"github.com/san-kum/smokesim/internal/grid"
)

// Grid is the coarse simulation volume. Every channel has Total() entries
// laid out with grid.Index.
type Grid struct {
	Res [3]int
	Dx  float64

	Density, Fuel, React, Flame, Heat []float64
	ColorR, ColorG, ColorB            []float64
	Vx, Vy, Vz                        []float64
	Fx, Fy, Fz                        []float64
	ObVx, ObVy, ObVz                  []float64
	Shadow                            []float64
	Obstacle                          []uint8
}

// Channel is a named view of one float channel.
type Channel struct {
	Name string
	Data []float64
}

func NewGrid(res [3]int, dx float64) (*Grid, error) {
	if res[0] < 1 || res[1] < 1 || res[2] < 1 {
		return nil, fmt.Errorf("%w: invalid resolution %v", ErrAllocation, res)
	}
	n := grid.Total(res)
	g := &Grid{Res: res, Dx: dx, Obstacle: make([]uint8, n)}
	for _, c := range g.channelPtrs() {
		*c = make([]float64, n)
	}
	return g, nil
}

func (g *Grid) Total() int { return grid.Total(g.Res) }

func (g *Grid) Index(x, y, z int) int { return grid.Index(x, y, z, g.Res) }

func (g *Grid) channelPtrs() []*[]float64 {
	return []*[]float64{
		&g.Density, &g.Fuel, &g.React, &g.Flame, &g.Heat,
		&g.ColorR, &g.ColorG, &g.ColorB,
		&g.Vx, &g.Vy, &g.Vz,
		&g.Fx, &g.Fy, &g.Fz,
		&g.ObVx, &g.ObVy, &g.ObVz,
		&g.Shadow,
	}
}

// Channels lists every float channel, in a fixed order.
func (g *Grid) Channels() []Channel {
	return []Channel{
		{"density", g.Density}, {"fuel", g.Fuel}, {"react", g.React},
		{"flame", g.Flame}, {"heat", g.Heat},
		{"color_r", g.ColorR}, {"color_g", g.ColorG}, {"color_b", g.ColorB},
		{"vel_x", g.Vx}, {"vel_y", g.Vy}, {"vel_z", g.Vz},
		{"force_x", g.Fx}, {"force_y", g.Fy}, {"force_z", g.Fz},
		{"ob_vel_x", g.ObVx}, {"ob_vel_y", g.ObVy}, {"ob_vel_z", g.ObVz},
		{"shadow", g.Shadow},
	}
}

// CopyCell copies every channel of cell src in from into cell dst of g.
func (g *Grid) CopyCell(dst int, from *Grid, src int) {
	to := g.Channels()
	for i, c := range from.Channels() {
		to[i].Data[dst] = c.Data[src]
	}
	g.Obstacle[dst] = from.Obstacle[src]
}

func (g *Grid) Clone() *Grid {
	c := &Grid{Res: g.Res, Dx: g.Dx, Obstacle: append([]uint8(nil), g.Obstacle...)}
	dst := c.channelPtrs()
	for i, src := range g.channelPtrs() {
		*dst[i] = append([]float64(nil), (*src)...)
	}
	return c
}

// HighRes is the companion grid, Block() times finer on every axis.
type HighRes struct {
	Res     [3]int
	Amplify int

	Density, Fuel, React, Flame []float64
	ColorR, ColorG, ColorB      []float64
}

func NewHighRes(coarse [3]int, amplify int) (*HighRes, error) {
	if amplify < 0 {
		return nil, fmt.Errorf("%w: negative amplify %d", ErrAllocation, amplify)
	}
	res := grid.Scale(coarse, amplify+1)
	if res[0] < 1 || res[1] < 1 || res[2] < 1 {
		return nil, fmt.Errorf("%w: invalid resolution %v", ErrAllocation, res)
	}
	n := grid.Total(res)
	h := &HighRes{Res: res, Amplify: amplify}
	for _, c := range h.channelPtrs() {
		*c = make([]float64, n)
	}
	return h, nil
}

// Block is the number of fine cells per coarse cell along one axis.
func (h *HighRes) Block() int { return h.Amplify + 1 }

func (h *HighRes) Total() int { return grid.Total(h.Res) }

func (h *HighRes) channelPtrs() []*[]float64 {
	return []*[]float64{&h.Density, &h.Fuel, &h.React, &h.Flame, &h.ColorR, &h.ColorG, &h.ColorB}
}

func (h *HighRes) Channels() []Channel {
	return []Channel{
		{"density", h.Density}, {"fuel", h.Fuel}, {"react", h.React}, {"flame", h.Flame},
		{"color_r", h.ColorR}, {"color_g", h.ColorG}, {"color_b", h.ColorB},
	}
}

func (h *HighRes) CopyCell(dst int, from *HighRes, src int) {
	to := h.Channels()
	for i, c := range from.Channels() {
		to[i].Data[dst] = c.Data[src]
	}
}

func (h *HighRes) Clone() *HighRes {
	c := &HighRes{Res: h.Res, Amplify: h.Amplify}
	dst := c.channelPtrs()
	for i, src := range h.channelPtrs() {
		*dst[i] = append([]float64(nil), (*src)...)
	}
	return c
}
