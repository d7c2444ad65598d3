// Command digitize runs the extraction engine once over a chart image read
// from a file or downloaded from a URL and prints the reading as JSON.
//
// Usage:
//
//	digitize chart.png --captured-at 2026-03-01T12:00:00Z --pretty
//	digitize --url https://example.org/latest.png --cache thresholds.db --plot series.png
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/adapter/chartsource"
	"github.com/couchcryptid/stripchart-etl/internal/adapter/memory"
	"github.com/couchcryptid/stripchart-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/stripchart-etl/internal/calibrate"
	"github.com/couchcryptid/stripchart-etl/internal/config"
	"github.com/couchcryptid/stripchart-etl/internal/digitize"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/observability"
	"github.com/couchcryptid/stripchart-etl/internal/pipeline"
	"github.com/couchcryptid/stripchart-etl/internal/render"
	"github.com/spf13/cobra"
)

type options struct {
	url        string
	capturedAt string
	cache      string
	plot       string
	plotWidth  int
	plotHeight int
	pretty     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "digitize [chart-image]",
		Short: "Extract the time series and severity thresholds from a strip chart",
		Long: `digitize reads a strip-chart image, traces its curve into timestamped
samples and derives the three severity thresholds from the background bands.
The reading is printed as JSON on stdout; logs go to stderr.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.url, "url", "", "download the chart from this URL instead of reading a file")
	f.StringVar(&o.capturedAt, "captured-at", "", "RFC3339 capture time of the chart (default: now)")
	f.StringVar(&o.cache, "cache", "", "SQLite threshold cache path (default: in-memory, nothing persisted)")
	f.StringVar(&o.plot, "plot", "", "write a diagnostic PNG of the series to this path")
	f.IntVar(&o.plotWidth, "plot-width", 1024, "diagnostic plot width in pixels")
	f.IntVar(&o.plotHeight, "plot-height", 400, "diagnostic plot height in pixels")
	f.BoolVar(&o.pretty, "pretty", false, "pretty-print JSON output")
	return cmd
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (o.url != "") {
		return errors.New("give exactly one of a chart path or --url")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	raw := domain.RawChart{ChartID: cfg.ChartID}
	if o.capturedAt != "" {
		raw.CapturedAt, err = time.Parse(time.RFC3339, o.capturedAt)
		if err != nil {
			return fmt.Errorf("invalid --captured-at: %w", err)
		}
	}
	raw.Image, err = o.readChart(ctx, args, cfg, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := o.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	transformer := pipeline.NewTransformer(pipeline.TransformerConfig{
		ChartID:    cfg.ChartID,
		Digitizer:  digitize.New(cfg.DigitizeParams(), logger),
		Calibrator: calibrate.New(cfg.CalibrateParams(), nil, logger),
		Store:      store,
		MinSamples: cfg.MinSamples,
		Metrics:    observability.NewStandaloneMetrics(),
		Logger:     logger,
	})

	reading, err := transformer.Transform(ctx, raw)
	if err != nil {
		return err
	}

	if o.plot != "" {
		if err := o.writePlot(reading); err != nil {
			return err
		}
	}
	return o.print(cmd.OutOrStdout(), reading)
}

func (o *options) readChart(ctx context.Context, args []string, cfg *config.Config, logger *slog.Logger) ([]byte, error) {
	if o.url != "" {
		return chartsource.NewClient(cfg.FetchTimeout, logger).Fetch(ctx, o.url)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read chart: %w", err)
	}
	return data, nil
}

func (o *options) openStore() (pipeline.ThresholdStore, func(), error) {
	if o.cache == "" {
		return memory.NewThresholdStore(nil), func() {}, nil
	}
	store, err := sqlite.New(o.cache)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func (o *options) writePlot(reading domain.ChartReading) error {
	data, err := render.SeriesPNG(reading.Samples, reading.Thresholds, o.plotWidth, o.plotHeight)
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.plot, data, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

func (o *options) print(w io.Writer, reading domain.ChartReading) error {
	enc := json.NewEncoder(w)
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(reading)
}
