package calibrate

import (
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/digitize"
)

// HueCuts splits the hue circle into the four band colours, in degrees.
// Red wraps around zero: h < RedMax or h >= RedMin.
type HueCuts struct {
	RedMax    float64
	OrangeMax float64
	YellowMax float64
	GreenMax  float64
	RedMin    float64
}

// Params tunes band classification and the cache lifecycle.
type Params struct {
	StripWidth       int
	StripOffset      int // columns kept clear of the crop's right edge
	VerifyStripWidth int
	VerifyRadius     int

	Hue           HueCuts
	MinSaturation float64
	MinValue      float64

	ReverifyInterval time.Duration
	MaxShift         float64
	Fallback         [3]float64

	Axis digitize.Axis
}

// DefaultParams returns the settings tuned for the published tremor chart.
func DefaultParams() Params {
	return Params{
		StripWidth:       6,
		StripOffset:      3,
		VerifyStripWidth: 3,
		VerifyRadius:     2,

		Hue: HueCuts{
			RedMax:    15,
			OrangeMax: 45,
			YellowMax: 75,
			GreenMax:  170,
			RedMin:    330,
		},
		MinSaturation: 0.25,
		MinValue:      0.25,

		ReverifyInterval: 12 * time.Hour,
		MaxShift:         0.6,
		Fallback:         [3]float64{1, 3, 5},

		Axis: digitize.DefaultParams().Axis,
	}
}
