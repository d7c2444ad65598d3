package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// BandColor is the severity colour of one background band.
type BandColor int

const (
	Unclassified BandColor = iota
	Green
	Yellow
	Orange
	Red
)

var bandNames = [...]string{"unclassified", "green", "yellow", "orange", "red"}

func (c BandColor) String() string {
	if c < 0 || int(c) >= len(bandNames) {
		return fmt.Sprintf("band(%d)", int(c))
	}
	return bandNames[c]
}

func (c BandColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *BandColor) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range bandNames {
		if n == s {
			*c = BandColor(i)
			return nil
		}
	}
	return fmt.Errorf("unknown band color %q", s)
}

// Transition names for the three band boundaries.
const (
	GreenYellow  = "green_yellow"
	YellowOrange = "yellow_orange"
	OrangeRed    = "orange_red"
)

// BandBoundary is a row where the background changes from Above to Below
// when scanning top-to-bottom. Row is the first row of the Below band.
type BandBoundary struct {
	Row   int       `json:"row"`
	Above BandColor `json:"above"`
	Below BandColor `json:"below"`
}

// Boundaries holds the three named transitions; nil means absent.
type Boundaries struct {
	GreenYellow  *BandBoundary `json:"green_yellow,omitempty"`
	YellowOrange *BandBoundary `json:"yellow_orange,omitempty"`
	OrangeRed    *BandBoundary `json:"orange_red,omitempty"`
}

// Each returns the present boundaries in declaration order.
func (b Boundaries) Each() []BandBoundary {
	var out []BandBoundary
	for _, p := range []*BandBoundary{b.GreenYellow, b.YellowOrange, b.OrangeRed} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Source tags where a ThresholdSet came from.
type Source string

const (
	SourceDetected       Source = "detected"
	SourceCache          Source = "cache"
	SourceFallbackStatic Source = "fallback_static"
)

// VerificationStatus is the outcome of the last verification pass.
type VerificationStatus string

const (
	VerificationOK      VerificationStatus = "ok"
	VerificationWarning VerificationStatus = "warning"
	VerificationFailed  VerificationStatus = "failed"
)

// Verification records when and how a ThresholdSet was last checked.
type Verification struct {
	Status    VerificationStatus `json:"status"`
	CheckedAt time.Time          `json:"checked_at"`
	Notes     string             `json:"notes,omitempty"`
}

// ThresholdSet is the calibration triple plus provenance. It is persisted
// externally as a single cached record and always written whole.
type ThresholdSet struct {
	T1           float64      `json:"t1"`
	T2           float64      `json:"t2"`
	T3           float64      `json:"t3"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Verification Verification `json:"verification"`
	Source       Source       `json:"source"`

	// Boundaries and PlotHeight let a later run re-verify the cached set
	// against a fresh image without repeating full detection.
	Boundaries Boundaries `json:"boundaries"`
	PlotHeight int        `json:"plot_height,omitempty"`
}

// Values returns the triple as a fixed array.
func (s ThresholdSet) Values() [3]float64 {
	return [3]float64{s.T1, s.T2, s.T3}
}

// Valid reports whether the set holds a usable triple.
func (s ThresholdSet) Valid() bool {
	return ValidateThresholds(s.T1, s.T2, s.T3) == nil
}

var errThresholdOrder = errors.New("thresholds must satisfy t1 < t2 <= t3")

// ValidateThresholds rejects non-finite or non-positive values and any triple
// that does not satisfy t1 < t2 <= t3.
func ValidateThresholds(t1, t2, t3 float64) error {
	for i, v := range []float64{t1, t2, t3} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold t%d is not finite", i+1)
		}
		if v <= 0 {
			return fmt.Errorf("threshold t%d must be positive, got %g", i+1, v)
		}
	}
	if t1 >= t2 || t2 > t3 {
		return errThresholdOrder
	}
	return nil
}
