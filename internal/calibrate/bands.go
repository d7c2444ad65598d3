package calibrate

import (
	"image"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/raster"
)

// ClassifyStrip classifies every row of a width-pixel strip that ends offset
// columns before the right edge of crop. The per-row colour is the median
// across the strip, which keeps a curve crossing the strip from dominating.
func ClassifyStrip(crop *image.NRGBA, width, offset int, p Params) []domain.BandColor {
	b := crop.Bounds()
	x1 := max(b.Max.X-offset, b.Min.X+1)
	x0 := max(x1-width, b.Min.X)

	medians := raster.RowMedians(crop, x0, x1)
	out := make([]domain.BandColor, len(medians))
	for i, c := range medians {
		out[i] = Classify(raster.ToHSV(c), p.Hue, p.MinSaturation, p.MinValue)
	}
	return out
}

// transition keys an unordered pair of adjacent band colours.
type transition struct{ a, b domain.BandColor }

func pair(a, b domain.BandColor) transition {
	if a > b {
		a, b = b, a
	}
	return transition{a, b}
}

// DetectBoundaries scans filled row classes top to bottom and records the
// first row where each expected pair of bands meets. A yellow/red meeting
// stands in for orange/red when the chart has no orange band.
func DetectBoundaries(rows []domain.BandColor) domain.Boundaries {
	var out domain.Boundaries
	var yellowRed *domain.BandBoundary

	for i := 1; i < len(rows); i++ {
		above, below := rows[i-1], rows[i]
		if above == below || above == domain.Unclassified || below == domain.Unclassified {
			continue
		}
		bb := &domain.BandBoundary{Row: i, Above: above, Below: below}
		switch pair(above, below) {
		case pair(domain.Green, domain.Yellow):
			if out.GreenYellow == nil {
				out.GreenYellow = bb
			}
		case pair(domain.Yellow, domain.Orange):
			if out.YellowOrange == nil {
				out.YellowOrange = bb
			}
		case pair(domain.Orange, domain.Red):
			if out.OrangeRed == nil {
				out.OrangeRed = bb
			}
		case pair(domain.Yellow, domain.Red):
			if yellowRed == nil {
				yellowRed = bb
			}
		}
	}

	if out.OrangeRed == nil && out.YellowOrange == nil {
		out.OrangeRed = yellowRed
	}
	return out
}
