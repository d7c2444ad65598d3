package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/stripchart-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/stripchart-etl/internal/adapter/kafka"
	"github.com/couchcryptid/stripchart-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/stripchart-etl/internal/calibrate"
	"github.com/couchcryptid/stripchart-etl/internal/config"
	"github.com/couchcryptid/stripchart-etl/internal/digitize"
	"github.com/couchcryptid/stripchart-etl/internal/observability"
	"github.com/couchcryptid/stripchart-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.New(cfg.ThresholdDBPath)
	if err != nil {
		logger.Error("failed to open threshold cache", "path", cfg.ThresholdDBPath, "error", err)
		os.Exit(1)
	}
	logger.Info("threshold cache opened", "path", cfg.ThresholdDBPath, "default_chart_id", cfg.ChartID)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(pipeline.TransformerConfig{
		ChartID:    cfg.ChartID,
		Digitizer:  digitize.New(cfg.DigitizeParams(), logger),
		Calibrator: calibrate.New(cfg.CalibrateParams(), nil, logger),
		Store:      store,
		MinSamples: cfg.MinSamples,
		Metrics:    metrics,
		Logger:     logger,
	})

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, cfg.ChartID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("threshold cache close error", "error", err)
	}

	logger.Info("shutdown complete")
}
