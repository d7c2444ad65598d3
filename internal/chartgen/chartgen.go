// Package chartgen draws deterministic synthetic strip charts with known
// geometry. The fixtures feed the digitizer and calibrator tests and the
// genmock command.
package chartgen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/disintegration/imaging"
)

// Band is a horizontal background band covering image rows [From, To).
type Band struct {
	Color    domain.BandColor
	From, To int
}

// Spec describes a chart to draw. Frame is the outer rectangle of the plot
// border; the border is FrameWidth pixels thick along its inside.
type Spec struct {
	Width, Height int
	Frame         image.Rectangle
	FrameWidth    int
	Bands         []Band
	Gridlines     []int // image columns, drawn GridWidth wide centred on each
	GridWidth     int
	GridColor     color.NRGBA
	CurveColor    color.NRGBA
	CurveWidth    int
	// Curve returns the image row of the curve at image column x.
	Curve func(x int) float64
}

// Palette holds the band colours drawn by the generator.
var Palette = map[domain.BandColor]color.NRGBA{
	domain.Green:  {R: 150, G: 230, B: 150, A: 255},
	domain.Yellow: {R: 250, G: 240, B: 130, A: 255},
	domain.Orange: {R: 250, G: 200, B: 130, A: 255},
	domain.Red:    {R: 245, G: 150, B: 150, A: 255},
}

// Default returns a 360×220 chart with four bands (red at the top), four
// dark gridlines and a slow sinusoidal curve.
func Default() Spec {
	frame := image.Rect(30, 15, 340, 195)
	top, bottom := frame.Min.Y+2, frame.Max.Y-2
	return Spec{
		Width:      360,
		Height:     220,
		Frame:      frame,
		FrameWidth: 2,
		Bands: []Band{
			{Color: domain.Red, From: top, To: 57},
			{Color: domain.Orange, From: 57, To: 97},
			{Color: domain.Yellow, From: 97, To: 137},
			{Color: domain.Green, From: 137, To: bottom},
		},
		Gridlines:  []int{90, 150, 210, 270},
		GridWidth:  3,
		GridColor:  color.NRGBA{R: 30, G: 30, B: 30, A: 255},
		CurveColor: color.NRGBA{R: 10, G: 10, B: 10, A: 255},
		CurveWidth: 2,
		Curve: func(x int) float64 {
			span := float64(frame.Dx() - 4)
			frac := 0.55 + 0.2*math.Sin(3*math.Pi*float64(x-frame.Min.X-2)/span)
			return float64(top) + frac*float64(bottom-top)
		},
	}
}

// ShiftBands returns a copy of s with every internal band edge moved down by
// delta rows. The outer edges of the first and last band stay in place.
func (s Spec) ShiftBands(delta int) Spec {
	bands := append([]Band(nil), s.Bands...)
	for i := 1; i < len(bands); i++ {
		bands[i-1].To += delta
		bands[i].From += delta
	}
	s.Bands = bands
	return s
}

// Interior is the area inside the frame border.
func (s Spec) Interior() image.Rectangle {
	return s.Frame.Inset(s.FrameWidth)
}

// ExpectedBox is the plot box the locator should find for this chart with
// the given crop padding.
func (s Spec) ExpectedBox(padding int) domain.PlotBox {
	return domain.PlotBox{
		Left:   s.Frame.Min.X + padding,
		Top:    s.Frame.Min.Y + padding,
		Right:  s.Frame.Max.X - 1 - padding,
		Bottom: s.Frame.Max.Y - 1 - padding,
	}
}

// Draw renders the chart.
func (s Spec) Draw() *image.NRGBA {
	img := imaging.New(s.Width, s.Height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	inner := s.Interior()

	fill(img, s.Frame, color.NRGBA{A: 255})
	fill(img, inner, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	for _, b := range s.Bands {
		fill(img, image.Rect(inner.Min.X, b.From, inner.Max.X, b.To).Intersect(inner), Palette[b.Color])
	}

	half := s.GridWidth / 2
	for _, gx := range s.Gridlines {
		fill(img, image.Rect(gx-half, inner.Min.Y, gx-half+s.GridWidth, inner.Max.Y).Intersect(inner), s.GridColor)
	}

	if s.Curve != nil {
		prev := math.NaN()
		for x := inner.Min.X; x < inner.Max.X; x++ {
			y := int(math.Round(s.Curve(x)))
			y0, y1 := y, y
			if !math.IsNaN(prev) {
				y0, y1 = min(y, int(prev)), max(y, int(prev))
			}
			fill(img, image.Rect(x, y0, x+1, y1+s.CurveWidth).Intersect(inner), s.CurveColor)
			prev = float64(y)
		}
	}
	return img
}

// PNG renders and encodes the chart.
func (s Spec) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, s.Draw(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// Truth is the ground truth of a drawn chart in crop coordinates: rows and
// columns are relative to the plot box the locator is expected to find.
type Truth struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	PlotBox    domain.PlotBox    `json:"plot_box"`
	Boundaries domain.Boundaries `json:"boundaries"`
	// CurveRows holds the centre row of the drawn curve for every crop column.
	CurveRows []float64 `json:"curve_rows"`
}

// Truth computes the ground truth for the chart cropped with padding.
func (s Spec) Truth(padding int) Truth {
	box := s.ExpectedBox(padding)
	t := Truth{Width: s.Width, Height: s.Height, PlotBox: box}

	for i := 1; i < len(s.Bands); i++ {
		above, below := s.Bands[i-1], s.Bands[i]
		bb := &domain.BandBoundary{Row: below.From - box.Top, Above: above.Color, Below: below.Color}
		switch {
		case isPair(above.Color, below.Color, domain.Green, domain.Yellow):
			t.Boundaries.GreenYellow = bb
		case isPair(above.Color, below.Color, domain.Yellow, domain.Orange):
			t.Boundaries.YellowOrange = bb
		case isPair(above.Color, below.Color, domain.Orange, domain.Red):
			t.Boundaries.OrangeRed = bb
		}
	}

	if s.Curve != nil {
		centre := float64(s.CurveWidth-1) / 2
		t.CurveRows = make([]float64, box.Width())
		for x := range t.CurveRows {
			t.CurveRows[x] = math.Round(s.Curve(x+box.Left)) + centre - float64(box.Top)
		}
	}
	return t
}

func isPair(a, b, x, y domain.BandColor) bool {
	return (a == x && b == y) || (a == y && b == x)
}
