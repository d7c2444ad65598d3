package raster

import (
	"image/color"
	"math"
)

// HSV is a colour in hue-saturation-value form. H is in degrees [0,360),
// S and V are in [0,1].
type HSV struct {
	H, S, V float64
}

// ToHSV converts an 8-bit RGB colour.
func ToHSV(c color.NRGBA) HSV {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	delta := hi - lo

	out := HSV{V: hi}
	if hi > 0 {
		out.S = delta / hi
	}
	if delta == 0 {
		return out
	}

	var h float64
	switch hi {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	out.H = h
	return out
}
