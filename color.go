package fontatlas

import (
	"image/color"
)

// Color is a straight (non-premultiplied) RGBA color with components in
// [0, 1].
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	Black = Color{0, 0, 0, 1}
	White = Color{1, 1, 1, 1}
)

// FromColor converts a standard color.Color.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

// NRGBA converts c to the standard 8-bit straight alpha representation.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: quantize(c.R),
		G: quantize(c.G),
		B: quantize(c.B),
		A: quantize(c.A),
	}
}
