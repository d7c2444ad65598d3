package calibrate

import (
	"errors"
	"fmt"
	"image"

	"github.com/couchcryptid/stripchart-etl/internal/digitize"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
)

var (
	errNoImage       = errors.New("no chart image")
	errNoGreenYellow = errors.New("green/yellow boundary not found")
	errNoOrangeRed   = errors.New("orange/red boundary not found")
)

// Detection is the product of a full band analysis.
type Detection struct {
	Boundaries domain.Boundaries
	Thresholds [3]float64
	Height     int
}

// Detect classifies the band strip of crop, finds the boundaries and derives
// the threshold triple.
func Detect(crop *image.NRGBA, p Params) (Detection, error) {
	if crop == nil || crop.Bounds().Empty() {
		return Detection{}, errNoImage
	}
	rows := FillUnclassified(ClassifyStrip(crop, p.StripWidth, p.StripOffset, p))
	bounds := DetectBoundaries(rows)
	h := crop.Bounds().Dy()

	t, err := DeriveThresholds(bounds, h, p.Axis)
	if err != nil {
		return Detection{}, err
	}
	return Detection{Boundaries: bounds, Thresholds: t, Height: h}, nil
}

// DeriveThresholds converts boundary rows into physical values with the
// chart's logarithmic axis. Without a yellow/orange boundary, t2 collapses
// onto t3. The triple must pass domain.ValidateThresholds.
func DeriveThresholds(b domain.Boundaries, height int, axis digitize.Axis) ([3]float64, error) {
	if b.GreenYellow == nil {
		return [3]float64{}, errNoGreenYellow
	}
	if b.OrangeRed == nil {
		return [3]float64{}, errNoOrangeRed
	}

	t1 := axis.Value(float64(b.GreenYellow.Row), height)
	t3 := axis.Value(float64(b.OrangeRed.Row), height)
	t2 := t3
	if b.YellowOrange != nil {
		t2 = axis.Value(float64(b.YellowOrange.Row), height)
	}

	if err := domain.ValidateThresholds(t1, t2, t3); err != nil {
		return [3]float64{}, fmt.Errorf("invalid thresholds %.4g/%.4g/%.4g: %w", t1, t2, t3, err)
	}
	return [3]float64{t1, t2, t3}, nil
}
