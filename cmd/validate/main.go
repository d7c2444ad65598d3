// Command validate digitizes a synthetic chart written by genmock and scores
// every stage against the ground truth: plot box, mask coverage, traced
// rows, band boundaries and derived thresholds.
//
// Usage:
//
//	go run ./cmd/validate -chart data/mock/chart.png -truth data/mock/truth.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/calibrate"
	"github.com/couchcryptid/stripchart-etl/internal/chartgen"
	"github.com/couchcryptid/stripchart-etl/internal/digitize"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
)

// capturedAt is fixed so repeated runs produce identical samples.
var capturedAt = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// tolerances bounds how far each stage may drift from the truth.
type tolerances struct {
	boxPx        int
	minCoverage  float64
	maxMedianErr float64
	boundaryRows int
	relThreshold float64
}

func main() {
	chartPath := flag.String("chart", "", "path to the chart PNG written by genmock")
	truthPath := flag.String("truth", "", "path to the truth JSON written by genmock")
	maxErr := flag.Float64("max-row-error", 1.5, "largest acceptable median absolute row error")
	flag.Parse()

	if *chartPath == "" || *truthPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	tol := tolerances{boxPx: 1, minCoverage: 90, maxMedianErr: *maxErr, boundaryRows: 1, relThreshold: 0.05}
	if code := run(os.Stdout, *chartPath, *truthPath, tol); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, chartPath, truthPath string, tol tolerances) int {
	fmt.Fprintln(w, "=== Strip Chart Extraction Validation ===")
	fmt.Fprintln(w)

	data, err := os.ReadFile(chartPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read chart: %v\n", err)
		return 1
	}
	truth, err := loadTruth(truthPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load truth: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dp := digitize.DefaultParams()
	res, err := digitize.New(dp, logger).DigitizeBytes(data, capturedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: digitize: %v\n", err)
		return 1
	}
	det, detErr := calibrate.Detect(res.Crop, calibrate.DefaultParams())

	phases := []*phase{
		validateBox(res, truth, tol),
		validateCoverage(res, tol),
		validateCurve(res, truth, tol),
		validateBoundaries(det, detErr, truth, tol),
		validateThresholds(det, detErr, truth, dp.Axis, tol),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Samples: %d, coverage %.1f%%, crop fallback %t, mask fallback %t\n",
		len(res.Samples), res.Mask.Coverage, res.CropFallback, res.Mask.UsedFallback)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func loadTruth(path string) (chartgen.Truth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chartgen.Truth{}, err
	}
	var t chartgen.Truth
	if err := json.Unmarshal(data, &t); err != nil {
		return chartgen.Truth{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// ── Phases ──

func validateBox(res digitize.Result, truth chartgen.Truth, tol tolerances) *phase {
	p := &phase{name: "Plot box"}
	if res.CropFallback {
		p.errorf("frame not found, fallback geometry used")
	}
	got, want := res.Box, truth.PlotBox
	edges := []struct {
		name      string
		got, want int
	}{
		{"left", got.Left, want.Left},
		{"top", got.Top, want.Top},
		{"right", got.Right, want.Right},
		{"bottom", got.Bottom, want.Bottom},
	}
	for _, e := range edges {
		if abs(e.got-e.want) > tol.boxPx {
			p.errorf("%s edge at %d, want %d", e.name, e.got, e.want)
		}
	}
	return p
}

func validateCoverage(res digitize.Result, tol tolerances) *phase {
	p := &phase{name: "Mask coverage"}
	if res.Mask.Coverage < tol.minCoverage {
		p.errorf("coverage %.1f%% below %.1f%%", res.Mask.Coverage, tol.minCoverage)
	}
	return p
}

// validateCurve compares traced rows with the drawn curve column by column.
// Columns are aligned on the truth box, so a box offset shows up here too.
func validateCurve(res digitize.Result, truth chartgen.Truth, tol tolerances) *phase {
	p := &phase{name: "Traced curve"}
	dx := res.Box.Left - truth.PlotBox.Left
	dy := float64(res.Box.Top - truth.PlotBox.Top)

	var errs []float64
	for x, y := range res.Smoothed {
		tx := x + dx
		if math.IsNaN(y) || tx < 0 || tx >= len(truth.CurveRows) {
			continue
		}
		errs = append(errs, math.Abs(y+dy-truth.CurveRows[tx]))
	}
	if len(errs) == 0 {
		p.errorf("no traced columns")
		return p
	}
	if m := medianOf(errs); m > tol.maxMedianErr {
		p.errorf("median absolute row error %.2f exceeds %.2f", m, tol.maxMedianErr)
	}
	return p
}

func validateBoundaries(det calibrate.Detection, detErr error, truth chartgen.Truth, tol tolerances) *phase {
	p := &phase{name: "Band boundaries"}
	if detErr != nil {
		p.errorf("detection failed: %v", detErr)
		return p
	}
	checks := []struct {
		name      string
		got, want *domain.BandBoundary
	}{
		{domain.GreenYellow, det.Boundaries.GreenYellow, truth.Boundaries.GreenYellow},
		{domain.YellowOrange, det.Boundaries.YellowOrange, truth.Boundaries.YellowOrange},
		{domain.OrangeRed, det.Boundaries.OrangeRed, truth.Boundaries.OrangeRed},
	}
	for _, c := range checks {
		switch {
		case c.want == nil && c.got == nil:
		case c.want == nil:
			p.errorf("%s found at row %d but the chart has none", c.name, c.got.Row)
		case c.got == nil:
			p.errorf("%s missing, want row %d", c.name, c.want.Row)
		case abs(c.got.Row-c.want.Row) > tol.boundaryRows:
			p.errorf("%s at row %d, want %d", c.name, c.got.Row, c.want.Row)
		}
	}
	return p
}

func validateThresholds(det calibrate.Detection, detErr error, truth chartgen.Truth, axis digitize.Axis, tol tolerances) *phase {
	p := &phase{name: "Thresholds"}
	if detErr != nil {
		p.errorf("detection failed: %v", detErr)
		return p
	}
	want, err := calibrate.DeriveThresholds(truth.Boundaries, truth.PlotBox.Height(), axis)
	if err != nil {
		p.errorf("truth thresholds: %v", err)
		return p
	}
	for i := range want {
		if rel := math.Abs(det.Thresholds[i]-want[i]) / want[i]; rel > tol.relThreshold {
			p.errorf("t%d = %.4g, want %.4g (%.1f%% off)", i+1, det.Thresholds[i], want[i], rel*100)
		}
	}
	return p
}

// ── Helpers ──

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func medianOf(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
