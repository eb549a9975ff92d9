// Package viz turns simulation grids into pictures.
//
// A grid channel is first reduced to a 2D [Slice], either by taking the
// maximum along an axis or by cutting one layer. Slices can then be drawn
// in a terminal:
//
//   - [Shade]: one coloured block per cell, using the current [Theme]
//   - [Canvas]: Braille dots where a channel crosses a threshold
//
// or written out as an animated GIF with [WriteGIF].
package viz
