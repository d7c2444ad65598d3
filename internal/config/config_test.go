package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-chart-images", cfg.KafkaSourceTopic)
	assert.Equal(t, "chart-samples", cfg.KafkaSinkTopic)
	assert.Equal(t, "chart-thresholds", cfg.KafkaThresholdTopic)
	assert.Equal(t, "stripchart-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)

	assert.Equal(t, "tremor", cfg.ChartID)
	assert.Equal(t, 168*time.Hour, cfg.ChartWindow)
	assert.Equal(t, -1.0, cfg.ChartLogMin)
	assert.Equal(t, 2.0, cfg.ChartLogMax)
	assert.Equal(t, 20.0, cfg.MinColumnCoverage)
	assert.Equal(t, 7, cfg.HampelWindow)
	assert.Equal(t, 3.0, cfg.HampelSigma)
	assert.Equal(t, 50, cfg.MinSamples)
	assert.Equal(t, 12*time.Hour, cfg.ThresholdReverifyInterval)
	assert.Equal(t, 0.6, cfg.ThresholdMaxShift)
	assert.Equal(t, [3]float64{1, 3, 5}, cfg.ThresholdFallback)
	assert.Equal(t, "thresholds.db", cfg.ThresholdDBPath)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_THRESHOLD_TOPIC", "custom-thresholds")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("CHART_ID", "seismic")
	t.Setenv("CHART_WINDOW", "24h")
	t.Setenv("CHART_LOG_MIN", "-2")
	t.Setenv("CHART_LOG_MAX", "3")
	t.Setenv("MIN_COLUMN_COVERAGE", "35")
	t.Setenv("HAMPEL_WINDOW", "9")
	t.Setenv("HAMPEL_SIGMA", "2.5")
	t.Setenv("MIN_SAMPLES", "10")
	t.Setenv("THRESHOLD_REVERIFY_INTERVAL", "6h")
	t.Setenv("THRESHOLD_MAX_SHIFT", "0.4")
	t.Setenv("THRESHOLD_FALLBACK", "0.5, 2, 4")
	t.Setenv("THRESHOLD_DB_PATH", "/tmp/cache.db")
	t.Setenv("FETCH_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-thresholds", cfg.KafkaThresholdTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "seismic", cfg.ChartID)
	assert.Equal(t, 24*time.Hour, cfg.ChartWindow)
	assert.Equal(t, -2.0, cfg.ChartLogMin)
	assert.Equal(t, 3.0, cfg.ChartLogMax)
	assert.Equal(t, 35.0, cfg.MinColumnCoverage)
	assert.Equal(t, 9, cfg.HampelWindow)
	assert.Equal(t, 2.5, cfg.HampelSigma)
	assert.Equal(t, 10, cfg.MinSamples)
	assert.Equal(t, 6*time.Hour, cfg.ThresholdReverifyInterval)
	assert.Equal(t, 0.4, cfg.ThresholdMaxShift)
	assert.Equal(t, [3]float64{0.5, 2, 4}, cfg.ThresholdFallback)
	assert.Equal(t, "/tmp/cache.db", cfg.ThresholdDBPath)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CHART_ID=from-file\nMIN_SAMPLES=12\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("MIN_SAMPLES", "30")
	t.Cleanup(func() { os.Unsetenv("CHART_ID") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.ChartID)
	assert.Equal(t, 30, cfg.MinSamples, "environment wins over the file")
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	_, err := Load()
	require.NoError(t, err)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidEngineSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "window not a duration", key: "CHART_WINDOW", value: "week"},
		{name: "window zero", key: "CHART_WINDOW", value: "0s"},
		{name: "log min not a number", key: "CHART_LOG_MIN", value: "low"},
		{name: "log min above max", key: "CHART_LOG_MIN", value: "5"},
		{name: "coverage above 100", key: "MIN_COLUMN_COVERAGE", value: "120"},
		{name: "even hampel window", key: "HAMPEL_WINDOW", value: "6"},
		{name: "tiny hampel window", key: "HAMPEL_WINDOW", value: "1"},
		{name: "zero sigma", key: "HAMPEL_SIGMA", value: "0"},
		{name: "zero min samples", key: "MIN_SAMPLES", value: "0"},
		{name: "reverify not a duration", key: "THRESHOLD_REVERIFY_INTERVAL", value: "often"},
		{name: "negative shift", key: "THRESHOLD_MAX_SHIFT", value: "-0.1"},
		{name: "two fallback values", key: "THRESHOLD_FALLBACK", value: "1,3"},
		{name: "unordered fallback", key: "THRESHOLD_FALLBACK", value: "5,3,1"},
		{name: "fallback not numbers", key: "THRESHOLD_FALLBACK", value: "a,b,c"},
		{name: "zero fetch timeout", key: "FETCH_TIMEOUT", value: "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfig_Params(t *testing.T) {
	t.Setenv("CHART_WINDOW", "24h")
	t.Setenv("CHART_LOG_MAX", "3")
	t.Setenv("MIN_COLUMN_COVERAGE", "35")
	t.Setenv("THRESHOLD_MAX_SHIFT", "0.4")
	t.Setenv("THRESHOLD_FALLBACK", "0.5,2,4")

	cfg, err := Load()
	require.NoError(t, err)

	dp := cfg.DigitizeParams()
	assert.Equal(t, 24*time.Hour, dp.Axis.Window)
	assert.Equal(t, 3.0, dp.Axis.LogMax)
	assert.Equal(t, 35.0, dp.MinCoveragePct)
	assert.Equal(t, 3, dp.CropPadding, "untouched fields keep their defaults")

	cp := cfg.CalibrateParams()
	assert.Equal(t, dp.Axis, cp.Axis)
	assert.Equal(t, 0.4, cp.MaxShift)
	assert.Equal(t, [3]float64{0.5, 2, 4}, cp.Fallback)
	assert.Equal(t, 12*time.Hour, cp.ReverifyInterval)
}
