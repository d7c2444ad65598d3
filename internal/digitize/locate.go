package digitize

import (
	"image"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/raster"
)

// LocatePlot finds the chart's data area inside img. The frame is the span
// between the first and last rows/columns whose dark fraction reaches
// MinDarkRatio, shrunk by CropPadding. When no frame is found, or the padded
// frame collapses, a fixed fraction-of-dimensions box is returned and the
// second result is true.
func LocatePlot(img image.Image, p Params) (domain.PlotBox, bool) {
	bounds := img.Bounds()
	lum := raster.Luminance(img)

	rowDark := make([]int, lum.H)
	colDark := make([]int, lum.W)
	for y := 0; y < lum.H; y++ {
		for x := 0; x < lum.W; x++ {
			if lum.At(x, y) < p.DarkThreshold {
				rowDark[y]++
				colDark[x]++
			}
		}
	}

	top, bottom, okRows := darkSpan(rowDark, lum.W, p.MinDarkRatio)
	left, right, okCols := darkSpan(colDark, lum.H, p.MinDarkRatio)
	if okRows && okCols {
		box := domain.PlotBox{
			Left:   bounds.Min.X + left + p.CropPadding,
			Top:    bounds.Min.Y + top + p.CropPadding,
			Right:  bounds.Min.X + right - p.CropPadding,
			Bottom: bounds.Min.Y + bottom - p.CropPadding,
		}
		if box.Within(bounds) {
			return box, false
		}
	}
	return fallbackBox(bounds, p), true
}

// darkSpan returns the first and last index whose dark count reaches ratio
// of length.
func darkSpan(counts []int, length int, ratio float64) (first, last int, ok bool) {
	first, last = -1, -1
	need := ratio * float64(length)
	for i, c := range counts {
		if float64(c) >= need && c > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}

// fallbackBox builds the percentage-of-dimensions box, clamped so it always
// has positive size inside bounds.
func fallbackBox(bounds image.Rectangle, p Params) domain.PlotBox {
	w, h := bounds.Dx(), bounds.Dy()
	left := clamp(int(p.FallbackLeft*float64(w)), 0, w-1)
	top := clamp(int(p.FallbackTop*float64(h)), 0, h-1)
	right := clamp(int(p.FallbackRight*float64(w)), left+1, w)
	bottom := clamp(int(p.FallbackBottom*float64(h)), top+1, h)
	return domain.PlotBox{
		Left:   bounds.Min.X + left,
		Top:    bounds.Min.Y + top,
		Right:  bounds.Min.X + right,
		Bottom: bounds.Min.Y + bottom,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
