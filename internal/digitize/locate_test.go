package digitize

import (
	"image"
	"image/color"
	"testing"

	"github.com/couchcryptid/stripchart-etl/internal/chartgen"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

func TestLocatePlot_FindsFrame(t *testing.T) {
	spec := chartgen.Default()
	p := DefaultParams()

	box, fallback := LocatePlot(spec.Draw(), p)

	assert.False(t, fallback)
	assert.Equal(t, spec.ExpectedBox(p.CropPadding), box)
}

func TestLocatePlot_BlankImageFallsBack(t *testing.T) {
	img := imaging.New(200, 100, white)

	box, fallback := LocatePlot(img, DefaultParams())

	assert.True(t, fallback)
	assert.Equal(t, domain.PlotBox{Left: 16, Top: 10, Right: 192, Bottom: 90}, box)
}

func TestLocatePlot_SingleDarkRowFallsBack(t *testing.T) {
	img := imaging.New(120, 80, white)
	for x := 0; x < 120; x++ {
		img.SetNRGBA(x, 40, black)
	}

	_, fallback := LocatePlot(img, DefaultParams())
	assert.True(t, fallback)
}

func TestLocatePlot_BoxAlwaysInsideImage(t *testing.T) {
	framed := imaging.New(50, 40, white)
	for x := 0; x < 50; x++ {
		framed.SetNRGBA(x, 0, black)
		framed.SetNRGBA(x, 39, black)
	}
	for y := 0; y < 40; y++ {
		framed.SetNRGBA(0, y, black)
		framed.SetNRGBA(49, y, black)
	}

	cases := map[string]*image.NRGBA{
		"1x1 white":   imaging.New(1, 1, white),
		"1x1 black":   imaging.New(1, 1, black),
		"3x2 white":   imaging.New(3, 2, white),
		"all black":   imaging.New(10, 10, black),
		"tall strip":  imaging.New(2, 300, white),
		"framed":      framed,
		"default gen": chartgen.Default().Draw(),
	}
	for name, img := range cases {
		t.Run(name, func(t *testing.T) {
			box, _ := LocatePlot(img, DefaultParams())
			assert.Less(t, box.Left, box.Right)
			assert.Less(t, box.Top, box.Bottom)
			assert.True(t, box.Within(img.Bounds()), "box %+v outside %v", box, img.Bounds())
		})
	}
}
