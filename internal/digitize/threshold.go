package digitize

import (
	"image"

	"github.com/couchcryptid/stripchart-etl/internal/raster"
)

// OtsuThreshold returns the luma level t that maximises the between-class
// variance of {v <= t} and {v > t}.
func OtsuThreshold(p raster.Plane) uint8 {
	var hist [256]int
	for _, v := range p.Pix {
		hist[v]++
	}

	total := float64(len(p.Pix))
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var sumB, wB, best float64
	var t uint8
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			t = uint8(i)
		}
	}
	return t
}

// BinarizeInv marks pixels at or below t as foreground. The curve is always
// the minority class, so when that side holds more than half of the plane
// the polarity flips and pixels above t become foreground instead.
func BinarizeInv(p raster.Plane, t uint8) *Mask {
	dark := 0
	for _, v := range p.Pix {
		if v <= t {
			dark++
		}
	}
	invert := dark*2 <= len(p.Pix)

	m := NewMask(p.W, p.H)
	for i, v := range p.Pix {
		if (v <= t) == invert {
			m.Pix[i] = 255
		}
	}
	return m
}

// ColorMask marks near-black, low-saturation pixels of img as foreground.
func ColorMask(img *image.NRGBA, maxValue, maxSaturation float64) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			hsv := raster.ToHSV(img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
			if hsv.V <= maxValue && hsv.S <= maxSaturation {
				m.Pix[y*m.W+x] = 255
			}
		}
	}
	return m
}
