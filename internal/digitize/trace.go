package digitize

import (
	"image"
	"math"
	"slices"

	"github.com/couchcryptid/stripchart-etl/internal/raster"
)

// PixelCurve holds one traced row per crop column. Missing columns are NaN.
type PixelCurve []float64

// Missing is the marker stored for a column without a traced point.
var Missing = math.NaN()

// IsMissing reports whether column i has no traced point.
func (c PixelCurve) IsMissing(i int) bool { return math.IsNaN(c[i]) }

// Present counts the traced columns.
func (c PixelCurve) Present() int {
	n := 0
	for i := range c {
		if !c.IsMissing(i) {
			n++
		}
	}
	return n
}

// MaskResult keeps both masks for diagnostics alongside the one the tracer
// walks.
type MaskResult struct {
	Raw          *Mask
	Cleaned      *Mask
	Final        *Mask
	Coverage     float64
	UsedFallback bool
	Gridlines    bool
}

// BuildMask thresholds the crop and runs the cleanup passes: gridline
// subtraction, open/close, margin clearing and component filtering. When the
// cleaned mask covers fewer than MinCoveragePct of the columns, a colour mask
// is built as well and the one with better coverage wins.
func BuildMask(crop *image.NRGBA, p Params) MaskResult {
	lum := raster.SmoothedLuminance(crop, p.BlurSigma)
	raw := BinarizeInv(lum, OtsuThreshold(lum)).Dilate(p.DilateSize)

	cleaned := raw.Clone()
	grid := RemoveGridlines(cleaned, p.GridlineMinRun, p.GridlineMinRatio)
	cleaned = cleaned.Open(p.OpenSize).Close(p.CloseSize)
	ClearMargins(cleaned, p.EdgeMargin)
	RemoveComponents(cleaned, p.MinComponentArea)

	res := MaskResult{
		Raw:       raw,
		Cleaned:   cleaned,
		Final:     cleaned,
		Coverage:  cleaned.CoveragePct(),
		Gridlines: grid,
	}
	if res.Coverage >= p.MinCoveragePct {
		return res
	}

	fallback := ColorMask(crop, p.FallbackMaxValue, p.FallbackMaxSaturation)
	if cov := fallback.CoveragePct(); cov > res.Coverage {
		res.Final = fallback
		res.Coverage = cov
		res.UsedFallback = true
	}
	return res
}

// TraceColumns walks the mask left to right. A column with foreground takes
// the median foreground row. An empty column borrows the median of its
// neighbours within NearRadius, then FarRadius, but only when that candidate
// lies within MaxRowDelta of the last accepted point. Rows on the top or
// bottom edge are always rejected.
func TraceColumns(m *Mask, p Params) PixelCurve {
	curve := make(PixelCurve, m.W)
	prev := Missing

	for x := 0; x < m.W; x++ {
		curve[x] = Missing

		if rows := m.ColumnRows(x); len(rows) > 0 {
			y := medianInt(rows)
			if !onEdge(y, m.H) {
				curve[x] = y
				prev = y
			}
			continue
		}

		if math.IsNaN(prev) {
			continue
		}
		for _, radius := range []int{p.NearRadius, p.FarRadius} {
			rows := neighbourRows(m, x, radius)
			if len(rows) == 0 {
				continue
			}
			y := medianInt(rows)
			if math.Abs(y-prev) <= p.MaxRowDelta && !onEdge(y, m.H) {
				curve[x] = y
				prev = y
			}
			break
		}
	}
	return curve
}

// neighbourRows gathers the foreground rows of the columns within radius of
// x, excluding x itself.
func neighbourRows(m *Mask, x, radius int) []int {
	var rows []int
	for nx := x - radius; nx <= x+radius; nx++ {
		if nx == x || nx < 0 || nx >= m.W {
			continue
		}
		rows = append(rows, m.ColumnRows(nx)...)
	}
	return rows
}

func onEdge(y float64, h int) bool {
	return y <= 0 || y >= float64(h-1)
}

func medianInt(v []int) float64 {
	s := slices.Clone(v)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return float64(s[n/2])
	}
	return float64(s[n/2-1]+s[n/2]) / 2
}
