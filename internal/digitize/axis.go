package digitize

import (
	"math"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
)

// Axis maps crop pixels to chart coordinates: a trailing time window ending
// at the capture instant, and a base-10 logarithmic value scale.
type Axis struct {
	Window  time.Duration
	LogMin  float64
	LogMax  float64
	Epsilon float64
}

// Value converts a row of a plot height pixels tall into a physical value.
// Row 0 is the top of the plot and maps to 10^LogMax.
func (a Axis) Value(row float64, height int) float64 {
	norm := 0.0
	if height > 1 {
		norm = row / float64(height-1)
	}
	exp := a.LogMin + (1-norm)*(a.LogMax-a.LogMin)
	return math.Max(math.Pow(10, exp), a.Epsilon)
}

// Time converts a column of a plot width pixels wide into a timestamp.
func (a Axis) Time(col float64, width int, now time.Time) time.Time {
	if width <= 1 {
		return now
	}
	frac := col / float64(width-1)
	start := now.Add(-a.Window)
	return start.Add(time.Duration(frac * float64(a.Window)))
}

// Samples converts every present column of curve into a sample, in column
// order. Missing columns are skipped, not interpolated.
func (a Axis) Samples(curve PixelCurve, height int, now time.Time) []domain.Sample {
	out := make([]domain.Sample, 0, curve.Present())
	for x, row := range curve {
		if curve.IsMissing(x) {
			continue
		}
		out = append(out, domain.Sample{
			Timestamp: a.Time(float64(x), len(curve), now).UTC(),
			Value:     a.Value(row, height),
		})
	}
	return out
}
