package calibrate

import (
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/raster"
)

// Classify maps one colour to a band, or Unclassified when it is too grey or
// too dark to carry a reliable hue.
func Classify(c raster.HSV, cuts HueCuts, minSat, minVal float64) domain.BandColor {
	if c.S < minSat || c.V < minVal {
		return domain.Unclassified
	}
	switch h := c.H; {
	case h < cuts.RedMax || h >= cuts.RedMin:
		return domain.Red
	case h < cuts.OrangeMax:
		return domain.Orange
	case h < cuts.YellowMax:
		return domain.Yellow
	case h < cuts.GreenMax:
		return domain.Green
	default:
		return domain.Unclassified
	}
}

// FillUnclassified replaces every Unclassified entry with the previous
// classified one, then fills any leading gap from the first classified
// entry. It returns a new slice.
func FillUnclassified(in []domain.BandColor) []domain.BandColor {
	out := make([]domain.BandColor, len(in))
	copy(out, in)

	last := domain.Unclassified
	for i, c := range out {
		if c == domain.Unclassified {
			out[i] = last
			continue
		}
		last = c
	}

	next := domain.Unclassified
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] == domain.Unclassified {
			out[i] = next
			continue
		}
		next = out[i]
	}
	return out
}
