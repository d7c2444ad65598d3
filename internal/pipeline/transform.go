package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/stripchart-etl/internal/calibrate"
	"github.com/couchcryptid/stripchart-etl/internal/digitize"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ThresholdStore persists one cached ThresholdSet per chart id.
type ThresholdStore interface {
	Load(ctx context.Context, chartID string) (*domain.ThresholdSet, error)
	Save(ctx context.Context, chartID string, set domain.ThresholdSet) error
}

// ChartTransformer implements Transformer: it digitizes the curve, resolves
// the calibration thresholds against the cache, and assembles a reading.
type ChartTransformer struct {
	chartID    string
	digitizer  *digitize.Digitizer
	calibrator *calibrate.Calibrator
	store      ThresholdStore
	minSamples int
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// TransformerConfig bundles the collaborators of a ChartTransformer.
type TransformerConfig struct {
	ChartID    string
	Digitizer  *digitize.Digitizer
	Calibrator *calibrate.Calibrator
	Store      ThresholdStore
	MinSamples int
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// NewTransformer creates a ChartTransformer. A nil clock uses real time.
func NewTransformer(c TransformerConfig) *ChartTransformer {
	clock := c.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ChartTransformer{
		chartID:    c.ChartID,
		digitizer:  c.Digitizer,
		calibrator: c.Calibrator,
		store:      c.Store,
		minSamples: c.MinSamples,
		clock:      clock,
		metrics:    c.Metrics,
		logger:     c.Logger,
	}
}

// Transform digitizes one chart image. It fails with domain.ErrUnreadableImage
// when the image cannot be decoded and domain.ErrInsufficientSignal when too
// few samples were recovered; threshold problems never fail a chart.
func (t *ChartTransformer) Transform(ctx context.Context, raw domain.RawChart) (domain.ChartReading, error) {
	chartID := raw.ChartID
	if chartID == "" {
		chartID = t.chartID
	}
	capturedAt := domain.ResolveCapturedAt(raw)

	res, err := t.digitizer.DigitizeBytes(raw.Image, capturedAt)
	if err != nil {
		return domain.ChartReading{}, err
	}
	t.observeDigitize(res)

	if len(res.Samples) < t.minSamples {
		return domain.ChartReading{}, fmt.Errorf("%w: %d samples, need %d",
			domain.ErrInsufficientSignal, len(res.Samples), t.minSamples)
	}

	return domain.ChartReading{
		ChartID:      chartID,
		CapturedAt:   capturedAt,
		PlotBox:      res.Box,
		CropFallback: res.CropFallback,
		CoveragePct:  res.Mask.Coverage,
		MaskFallback: res.Mask.UsedFallback,
		Samples:      res.Samples,
		Thresholds:   t.thresholds(ctx, chartID, res),
		ProcessedAt:  t.clock.Now().UTC(),
	}, nil
}

// thresholds loads the chart's cache entry, calibrates against the crop and
// writes the result back when the calibrator asks for it. Store failures are
// logged and calibration proceeds as if there were no cache.
func (t *ChartTransformer) thresholds(ctx context.Context, chartID string, res digitize.Result) domain.ThresholdSet {
	cached, err := t.store.Load(ctx, chartID)
	if err != nil {
		t.logger.Warn("threshold cache load failed", "chart_id", chartID, "error", err)
		t.metrics.ThresholdStoreErrs.WithLabelValues("load").Inc()
		cached = nil
	}

	out := t.calibrator.Calibrate(res.Crop, cached)
	t.metrics.ThresholdDecisions.WithLabelValues(out.Decision.String(), string(out.Set.Verification.Status)).Inc()

	if out.Persist {
		if err := t.store.Save(ctx, chartID, out.Set); err != nil {
			t.logger.Warn("threshold cache save failed", "chart_id", chartID, "error", err)
			t.metrics.ThresholdStoreErrs.WithLabelValues("save").Inc()
		}
	}
	return out.Set
}

func (t *ChartTransformer) observeDigitize(res digitize.Result) {
	t.metrics.SamplesPerChart.Observe(float64(len(res.Samples)))
	t.metrics.ColumnCoverage.Observe(res.Mask.Coverage)
	if res.CropFallback {
		t.metrics.CropFallbacks.Inc()
	}
	if res.Mask.UsedFallback {
		t.metrics.MaskFallbacks.Inc()
	}
}
