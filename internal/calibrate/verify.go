package calibrate

import (
	"fmt"
	"image"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
)

// Verify re-samples a narrow strip of crop and checks that the rows just
// above and below every cached boundary still show the cached colours. It
// returns one note per mismatch; an empty result means the cache holds.
func Verify(crop *image.NRGBA, cached domain.ThresholdSet, p Params) []string {
	if crop == nil || crop.Bounds().Empty() {
		return []string{errNoImage.Error()}
	}
	h := crop.Bounds().Dy()
	if cached.PlotHeight != 0 && cached.PlotHeight != h {
		return []string{fmt.Sprintf("plot height changed from %d to %d", cached.PlotHeight, h)}
	}
	bounds := cached.Boundaries.Each()
	if len(bounds) == 0 {
		return []string{"no cached boundaries"}
	}

	rows := FillUnclassified(ClassifyStrip(crop, p.VerifyStripWidth, p.StripOffset, p))
	r := max(p.VerifyRadius, 1)

	var problems []string
	for _, b := range bounds {
		if b.Row-r < 0 || b.Row+r > len(rows) {
			problems = append(problems, fmt.Sprintf("boundary at row %d out of range", b.Row))
			continue
		}
		if !allEqual(rows[b.Row-r:b.Row], b.Above) || !allEqual(rows[b.Row:b.Row+r], b.Below) {
			problems = append(problems, fmt.Sprintf("%s/%s boundary moved from row %d", b.Above, b.Below, b.Row))
		}
	}
	return problems
}

func allEqual(rows []domain.BandColor, want domain.BandColor) bool {
	for _, c := range rows {
		if c != want {
			return false
		}
	}
	return true
}
