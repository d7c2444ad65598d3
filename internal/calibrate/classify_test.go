package calibrate

import (
	"slices"
	"testing"

	"github.com/couchcryptid/stripchart-etl/internal/chartgen"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/raster"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name string
		hsv  raster.HSV
		want domain.BandColor
	}{
		{name: "pure red", hsv: raster.HSV{H: 0, S: 1, V: 1}, want: domain.Red},
		{name: "red wraps", hsv: raster.HSV{H: 345, S: 0.6, V: 0.9}, want: domain.Red},
		{name: "orange", hsv: raster.HSV{H: 35, S: 0.5, V: 0.9}, want: domain.Orange},
		{name: "orange lower cut", hsv: raster.HSV{H: 15, S: 0.5, V: 0.9}, want: domain.Orange},
		{name: "yellow", hsv: raster.HSV{H: 55, S: 0.5, V: 0.9}, want: domain.Yellow},
		{name: "green", hsv: raster.HSV{H: 120, S: 0.4, V: 0.9}, want: domain.Green},
		{name: "blue", hsv: raster.HSV{H: 220, S: 0.8, V: 0.9}, want: domain.Unclassified},
		{name: "grey", hsv: raster.HSV{H: 120, S: 0.1, V: 0.9}, want: domain.Unclassified},
		{name: "dark", hsv: raster.HSV{H: 120, S: 0.8, V: 0.1}, want: domain.Unclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.hsv, p.Hue, p.MinSaturation, p.MinValue))
		})
	}
}

func TestClassify_GeneratorPalette(t *testing.T) {
	p := DefaultParams()
	for band, c := range chartgen.Palette {
		assert.Equal(t, band, Classify(raster.ToHSV(c), p.Hue, p.MinSaturation, p.MinValue), band.String())
	}
}

func TestFillUnclassified(t *testing.T) {
	const (
		u = domain.Unclassified
		g = domain.Green
		y = domain.Yellow
	)

	tests := []struct {
		name string
		in   []domain.BandColor
		want []domain.BandColor
	}{
		{name: "forward then backward", in: []domain.BandColor{u, u, g, u, y, u}, want: []domain.BandColor{g, g, g, g, y, y}},
		{name: "nothing classified", in: []domain.BandColor{u, u}, want: []domain.BandColor{u, u}},
		{name: "empty", in: []domain.BandColor{}, want: []domain.BandColor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := slices.Clone(tt.in)
			assert.Equal(t, tt.want, FillUnclassified(tt.in))
			assert.Equal(t, in, tt.in, "input must not be modified")
		})
	}
}
