package digitize

import "time"

// Params tunes every stage of the digitizer. The zero value is not usable;
// start from DefaultParams and override fields.
type Params struct {
	// Plot locator. Luma below DarkThreshold counts as dark; a row or column
	// belongs to the frame when at least MinDarkRatio of it is dark. The
	// fallback box is expressed as fractions of the image size.
	DarkThreshold  uint8
	MinDarkRatio   float64
	CropPadding    int
	FallbackLeft   float64
	FallbackTop    float64
	FallbackRight  float64
	FallbackBottom float64

	// Curve mask. GridlineMinRun is a fraction of the plot height;
	// GridlineMinRatio is gridline pixels over mask pixels. EdgeMargin rows and
	// columns are cleared at the top, bottom and right.
	BlurSigma             float64
	DilateSize            int
	GridlineMinRun        float64
	GridlineMinRatio      float64
	OpenSize              int
	CloseSize             int
	EdgeMargin            int
	MinComponentArea      int
	MinCoveragePct        float64
	FallbackMaxValue      float64
	FallbackMaxSaturation float64

	// Column walk.
	NearRadius  int
	FarRadius   int
	MaxRowDelta float64

	// Outlier smoother.
	HampelWindow int
	HampelSigma  float64

	Axis Axis
}

// DefaultParams returns the settings tuned for the published tremor chart.
func DefaultParams() Params {
	return Params{
		DarkThreshold:  80,
		MinDarkRatio:   0.5,
		CropPadding:    3,
		FallbackLeft:   0.08,
		FallbackTop:    0.10,
		FallbackRight:  0.96,
		FallbackBottom: 0.90,

		BlurSigma:             1.0,
		DilateSize:            3,
		GridlineMinRun:        0.8,
		GridlineMinRatio:      0.02,
		OpenSize:              3,
		CloseSize:             3,
		EdgeMargin:            3,
		MinComponentArea:      15,
		MinCoveragePct:        20,
		FallbackMaxValue:      0.35,
		FallbackMaxSaturation: 0.35,

		NearRadius:  2,
		FarRadius:   3,
		MaxRowDelta: 10,

		HampelWindow: 7,
		HampelSigma:  3.0,

		Axis: Axis{
			Window:  168 * time.Hour,
			LogMin:  -1,
			LogMax:  2,
			Epsilon: 1e-6,
		},
	}
}
