// Package digitize recovers a numeric time series from a strip-chart image:
// it locates the plot area, traces the curve column by column, suppresses
// impulsive tracing errors and maps pixels onto the chart's axes.
package digitize

import (
	"image"
	"log/slog"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/raster"
)

// Result carries every intermediate product of one run. Crop is shared with
// the band calibrator so both pipelines work on the same pixels.
type Result struct {
	Box          domain.PlotBox
	CropFallback bool
	Crop         *image.NRGBA
	Mask         MaskResult
	Traced       PixelCurve
	Smoothed     PixelCurve
	Samples      []domain.Sample
}

// Digitizer runs the locate → trace → smooth → map chain.
type Digitizer struct {
	params Params
	logger *slog.Logger
}

// New creates a Digitizer with the given parameters.
func New(params Params, logger *slog.Logger) *Digitizer {
	return &Digitizer{params: params, logger: logger}
}

// Params returns the parameters the digitizer was built with.
func (d *Digitizer) Params() Params { return d.params }

// DigitizeBytes decodes an encoded chart and digitizes it. Decode failures
// wrap domain.ErrUnreadableImage; nothing else fails.
func (d *Digitizer) DigitizeBytes(data []byte, capturedAt time.Time) (Result, error) {
	img, err := raster.DecodeBytes(data)
	if err != nil {
		return Result{}, err
	}
	return d.Digitize(img, capturedAt), nil
}

// Digitize extracts the series from a decoded chart captured at capturedAt.
func (d *Digitizer) Digitize(img image.Image, capturedAt time.Time) Result {
	p := d.params

	box, cropFallback := LocatePlot(img, p)
	if cropFallback {
		d.logger.Warn("plot frame not found, using fallback geometry",
			"left", box.Left, "top", box.Top, "right", box.Right, "bottom", box.Bottom)
	}
	crop := raster.Crop(img, box.Rect())

	mask := BuildMask(crop, p)
	if mask.UsedFallback {
		d.logger.Warn("mask cleanup too aggressive, using colour mask",
			"coverage_pct", mask.Coverage, "min_coverage_pct", p.MinCoveragePct)
	}

	traced := TraceColumns(mask.Final, p)
	smoothed := Hampel(traced, p.HampelWindow, p.HampelSigma)
	h := crop.Bounds().Dy()
	samples := p.Axis.Samples(smoothed, h, capturedAt)

	d.logger.Debug("chart digitized",
		"crop_width", crop.Bounds().Dx(),
		"crop_height", h,
		"coverage_pct", mask.Coverage,
		"gridlines_removed", mask.Gridlines,
		"traced", traced.Present(),
		"samples", len(samples),
	)

	return Result{
		Box:          box,
		CropFallback: cropFallback,
		Crop:         crop,
		Mask:         mask,
		Traced:       traced,
		Smoothed:     smoothed,
		Samples:      samples,
	}
}
