package calibrate

import (
	"image"
	"image/color"
	"io"
	"log/slog"

	"github.com/couchcryptid/stripchart-etl/internal/chartgen"
	"github.com/couchcryptid/stripchart-etl/internal/raster"
	"github.com/disintegration/imaging"
)

const cropPadding = 3

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// shiftedChart returns the default chart with every band boundary moved by
// delta image rows.
func shiftedChart(delta int) chartgen.Spec {
	return chartgen.Default().ShiftBands(delta)
}

// chartCrop draws spec and cuts out the plot box the locator would find.
func chartCrop(spec chartgen.Spec) *image.NRGBA {
	return raster.Crop(spec.Draw(), spec.ExpectedBox(cropPadding).Rect())
}

func blankCrop() *image.NRGBA {
	return imaging.New(303, 173, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}
