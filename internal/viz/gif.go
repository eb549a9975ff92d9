package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
)

// grayPalette is 256 levels from black to white.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// obstacleIndex is the palette entry used for obstacle cells.
const obstacleIndex = 64

// Image draws s at scale pixels per cell. Values are normalized by peak,
// or by the slice maximum when peak is not positive.
func Image(s *Slice, scale int, peak float64) *image.Paletted {
	scale = max(scale, 1)
	if peak <= 0 {
		peak = s.Max
	}
	img := image.NewPaletted(image.Rect(0, 0, s.Width*scale, s.Height*scale), grayPalette)
	for r := 0; r < s.Height; r++ {
		for c := 0; c < s.Width; c++ {
			var idx uint8
			switch {
			case s.Obstacle[r*s.Width+c]:
				idx = obstacleIndex
			case peak > 0:
				idx = uint8(min(max(s.At(c, r)/peak, 0), 1) * 255)
			}
			for py := 0; py < scale; py++ {
				for px := 0; px < scale; px++ {
					img.SetColorIndex(c*scale+px, r*scale+py, idx)
				}
			}
		}
	}
	return img
}

// WriteGIF encodes slices as a looping animation. All frames share the
// largest maximum so brightness is comparable across frames. Slices may
// differ in size when the domain is adaptive; each frame keeps its own.
func WriteGIF(w io.Writer, slices []*Slice, scale, delay int) error {
	if len(slices) == 0 {
		return errors.New("no frames")
	}
	var peak float64
	for _, s := range slices {
		peak = max(peak, s.Max)
	}
	anim := gif.GIF{LoopCount: 0}
	for _, s := range slices {
		img := Image(s, scale, peak)
		anim.Config.Width = max(anim.Config.Width, img.Rect.Dx())
		anim.Config.Height = max(anim.Config.Height, img.Rect.Dy())
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, delay)
	}
	anim.Config.ColorModel = grayPalette
	return gif.EncodeAll(w, &anim)
}
