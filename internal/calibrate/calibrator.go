// Package calibrate reads the colour-coded severity bands of a strip chart
// and derives the three calibration thresholds they encode. It owns the
// lifecycle of the cached threshold set: reuse while fresh, re-verify on an
// interval, re-detect when verification fails, and fall back to static values
// when nothing else is available.
package calibrate

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Decision tags how a calibration result was reached.
type Decision int

const (
	Detected Decision = iota
	Cached
	Fallback
)

func (d Decision) String() string {
	switch d {
	case Detected:
		return "detected"
	case Cached:
		return "cached"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Result is the set to use now, how it was obtained, and whether the caller
// should write it back to the cache store.
type Result struct {
	Set      domain.ThresholdSet
	Decision Decision
	Persist  bool
}

// Calibrator decides between the cached, freshly detected and static
// threshold sets. It holds no state: the cache is passed in and the outcome
// handed back for the caller to persist.
type Calibrator struct {
	params Params
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a Calibrator. A nil clock uses real time.
func New(params Params, clock clockwork.Clock, logger *slog.Logger) *Calibrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Calibrator{params: params, clock: clock, logger: logger}
}

// Calibrate resolves the threshold set for crop given the last cached set,
// which may be nil. It never fails.
func (c *Calibrator) Calibrate(crop *image.NRGBA, cached *domain.ThresholdSet) Result {
	now := c.clock.Now().UTC()
	switch {
	case !usableCache(cached):
		return c.detectOrFallback(crop, now)
	case now.Sub(cached.Verification.CheckedAt) < c.params.ReverifyInterval:
		set := *cached
		set.Source = domain.SourceCache
		return Result{Set: set, Decision: Cached}
	default:
		return c.reverify(crop, *cached, now)
	}
}

func usableCache(s *domain.ThresholdSet) bool {
	return s != nil && s.Source != domain.SourceFallbackStatic && s.Valid()
}

// detectOrFallback runs full detection with no cache to fall back on.
func (c *Calibrator) detectOrFallback(crop *image.NRGBA, now time.Time) Result {
	det, err := Detect(crop, c.params)
	if err != nil {
		c.logger.Warn("threshold detection failed, using static fallback", "error", err)
		return Result{Set: c.staticSet(now, "detection failed: "+err.Error()), Decision: Fallback}
	}
	c.logger.Info("thresholds detected",
		"t1", det.Thresholds[0], "t2", det.Thresholds[1], "t3", det.Thresholds[2])
	return Result{Set: detectedSet(det, now, "detected"), Decision: Detected, Persist: true}
}

// reverify checks a stale cache against the live image and re-detects when
// the boundaries no longer line up.
func (c *Calibrator) reverify(crop *image.NRGBA, cached domain.ThresholdSet, now time.Time) Result {
	kept := cached
	kept.Source = domain.SourceCache

	problems := Verify(crop, cached, c.params)
	if len(problems) == 0 {
		kept.Verification = domain.Verification{Status: domain.VerificationOK, CheckedAt: now, Notes: "boundaries verified"}
		return Result{Set: kept, Decision: Cached, Persist: true}
	}
	c.logger.Warn("cached thresholds failed verification, re-detecting", "problems", problems)

	det, err := Detect(crop, c.params)
	if err != nil {
		kept.Verification = domain.Verification{
			Status:    domain.VerificationWarning,
			CheckedAt: now,
			Notes:     fmt.Sprintf("verification failed (%s); re-detection failed: %v", strings.Join(problems, "; "), err),
		}
		c.logger.Warn("re-detection failed, keeping cached thresholds", "error", err)
		return Result{Set: kept, Decision: Cached, Persist: true}
	}

	if shift := MaxRelativeShift(cached.Values(), det.Thresholds); shift > c.params.MaxShift {
		kept.Verification = domain.Verification{
			Status:    domain.VerificationFailed,
			CheckedAt: now,
			Notes:     fmt.Sprintf("shift too large: %.0f%% exceeds %.0f%%", shift*100, c.params.MaxShift*100),
		}
		c.logger.Warn("re-detected thresholds shifted too far, keeping cache",
			"shift", shift, "max_shift", c.params.MaxShift)
		return Result{Set: kept, Decision: Cached, Persist: true}
	}

	c.logger.Info("thresholds re-detected",
		"t1", det.Thresholds[0], "t2", det.Thresholds[1], "t3", det.Thresholds[2])
	return Result{Set: detectedSet(det, now, "re-detected after failed verification"), Decision: Detected, Persist: true}
}

func detectedSet(det Detection, now time.Time, notes string) domain.ThresholdSet {
	return domain.ThresholdSet{
		T1:           det.Thresholds[0],
		T2:           det.Thresholds[1],
		T3:           det.Thresholds[2],
		UpdatedAt:    now,
		Verification: domain.Verification{Status: domain.VerificationOK, CheckedAt: now, Notes: notes},
		Source:       domain.SourceDetected,
		Boundaries:   det.Boundaries,
		PlotHeight:   det.Height,
	}
}

func (c *Calibrator) staticSet(now time.Time, notes string) domain.ThresholdSet {
	f := c.params.Fallback
	return domain.ThresholdSet{
		T1:           f[0],
		T2:           f[1],
		T3:           f[2],
		UpdatedAt:    now,
		Verification: domain.Verification{Status: domain.VerificationFailed, CheckedAt: now, Notes: notes},
		Source:       domain.SourceFallbackStatic,
	}
}

// MaxRelativeShift returns the largest |new-old|/old across the triple.
func MaxRelativeShift(prev, next [3]float64) float64 {
	var worst float64
	for i := range prev {
		if prev[i] == 0 {
			return math.Inf(1)
		}
		worst = math.Max(worst, math.Abs(next[i]-prev[i])/prev[i])
	}
	return worst
}
