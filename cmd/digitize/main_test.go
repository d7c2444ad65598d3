package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/chartgen"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChart(t *testing.T) string {
	t.Helper()
	data, err := chartgen.Default().PNG()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDigitize_File(t *testing.T) {
	dir := t.TempDir()
	plot := filepath.Join(dir, "series.png")
	cache := filepath.Join(dir, "thresholds.db")

	out, err := execute(t, writeChart(t),
		"--captured-at", "2026-03-01T12:00:00Z",
		"--cache", cache,
		"--plot", plot,
		"--plot-width", "500", "--plot-height", "250",
	)
	require.NoError(t, err)

	var reading domain.ChartReading
	require.NoError(t, json.Unmarshal([]byte(out), &reading))
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), reading.CapturedAt)
	assert.NotEmpty(t, reading.Samples)
	assert.Equal(t, domain.SourceDetected, reading.Thresholds.Source)

	f, err := os.Open(plot)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)

	// A second run finds the fresh cache.
	out, err = execute(t, writeChart(t), "--captured-at", "2026-03-01T12:00:00Z", "--cache", cache)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &reading))
	assert.Equal(t, domain.SourceCache, reading.Thresholds.Source)
}

func TestDigitize_Pretty(t *testing.T) {
	out, err := execute(t, writeChart(t), "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"chart_id\"")
}

func TestDigitize_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", nil},
		{"path and url", []string{"chart.png", "--url", "http://localhost/chart.png"}},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.png")}},
		{"bad capture time", []string{"chart.png", "--captured-at", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
