// Package render draws diagnostic plots of an extracted series.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var errTooFewSamples = errors.New("render: need at least two positive samples")

var (
	seriesColor    = drawing.Color{R: 20, G: 20, B: 20, A: 255}
	thresholdColor = map[string]drawing.Color{
		"t1": {R: 200, G: 180, B: 0, A: 255},
		"t2": {R: 230, G: 130, B: 0, A: 255},
		"t3": {R: 210, G: 30, B: 30, A: 255},
	}
)

// SeriesPNG renders samples on a log10 value axis with the three thresholds
// as horizontal reference lines. Non-positive values cannot be placed on a
// log axis and are skipped.
func SeriesPNG(samples []domain.Sample, thresholds domain.ThresholdSet, width, height int) ([]byte, error) {
	xs := make([]time.Time, 0, len(samples))
	ys := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Value <= 0 || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		xs = append(xs, s.Timestamp)
		ys = append(ys, math.Log10(s.Value))
	}
	if len(xs) < 2 {
		return nil, errTooFewSamples
	}

	lo, hi := bounds(ys)
	series := []chart.Series{
		chart.TimeSeries{
			Name:    "value",
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: seriesColor, StrokeWidth: 1.5},
		},
	}

	if thresholds.Valid() {
		span := []time.Time{xs[0], xs[len(xs)-1]}
		for i, v := range thresholds.Values() {
			name := fmt.Sprintf("t%d", i+1)
			lv := math.Log10(v)
			lo, hi = math.Min(lo, lv), math.Max(hi, lv)
			series = append(series, chart.TimeSeries{
				Name:    name,
				XValues: span,
				YValues: []float64{lv, lv},
				Style: chart.Style{
					StrokeColor:     thresholdColor[name],
					StrokeWidth:     1,
					StrokeDashArray: []float64{5, 3},
				},
			})
		}
	}

	minDecade, maxDecade := math.Floor(lo), math.Ceil(hi)
	if minDecade == maxDecade {
		maxDecade++
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 36}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04"),
		},
		YAxis: chart.YAxis{
			Name:  "value",
			Range: &chart.ContinuousRange{Min: minDecade, Max: maxDecade},
			Ticks: decadeTicks(minDecade, maxDecade),
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render series: %w", err)
	}
	return buf.Bytes(), nil
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return lo, hi
}

// decadeTicks labels every integer power of ten between lo and hi.
func decadeTicks(lo, hi float64) []chart.Tick {
	var ticks []chart.Tick
	for d := lo; d <= hi; d++ {
		ticks = append(ticks, chart.Tick{Value: d, Label: formatDecade(d)})
	}
	return ticks
}

func formatDecade(d float64) string {
	v := math.Pow(10, d)
	if d < 0 {
		return fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("%.0f", v)
}
