package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/stripchart-etl/internal/calibrate"
	"github.com/couchcryptid/stripchart-etl/internal/digitize"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers        []string
	KafkaSourceTopic    string
	KafkaSinkTopic      string
	KafkaThresholdTopic string
	KafkaGroupID        string
	HTTPAddr            string
	LogLevel            string
	LogFormat           string
	ShutdownTimeout     time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Chart geometry and digitizer tuning.
	ChartID           string
	ChartWindow       time.Duration
	ChartLogMin       float64
	ChartLogMax       float64
	MinColumnCoverage float64
	HampelWindow      int
	HampelSigma       float64
	MinSamples        int

	// Threshold calibration and its cache.
	ThresholdReverifyInterval time.Duration
	ThresholdMaxShift         float64
	ThresholdFallback         [3]float64
	ThresholdDBPath           string

	// Chart image download used by the digitize command.
	FetchTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file (or the file named by ENV_FILE) is applied first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := loadDotenv(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:    sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-chart-images"),
		KafkaSinkTopic:      sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "chart-samples"),
		KafkaThresholdTopic: sharedcfg.EnvOrDefault("KAFKA_THRESHOLD_TOPIC", "chart-thresholds"),
		KafkaGroupID:        sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "stripchart-etl"),
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
		BatchSize:           batchSize,
		BatchFlushInterval:  flushInterval,
		ChartID:             sharedcfg.EnvOrDefault("CHART_ID", "tremor"),
		ThresholdDBPath:     sharedcfg.EnvOrDefault("THRESHOLD_DB_PATH", "thresholds.db"),
	}

	p := &parser{}
	cfg.ChartWindow = p.duration("CHART_WINDOW", "168h")
	cfg.ChartLogMin = p.float("CHART_LOG_MIN", "-1")
	cfg.ChartLogMax = p.float("CHART_LOG_MAX", "2")
	cfg.MinColumnCoverage = p.float("MIN_COLUMN_COVERAGE", "20")
	cfg.HampelWindow = p.int("HAMPEL_WINDOW", "7")
	cfg.HampelSigma = p.float("HAMPEL_SIGMA", "3.0")
	cfg.MinSamples = p.int("MIN_SAMPLES", "50")
	cfg.ThresholdReverifyInterval = p.duration("THRESHOLD_REVERIFY_INTERVAL", "12h")
	cfg.ThresholdMaxShift = p.float("THRESHOLD_MAX_SHIFT", "0.6")
	cfg.ThresholdFallback = p.triple("THRESHOLD_FALLBACK", "1,3,5")
	cfg.FetchTimeout = p.duration("FETCH_TIMEOUT", "10s")
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.KafkaThresholdTopic == "" {
		return errors.New("KAFKA_THRESHOLD_TOPIC is required")
	}
	if c.ChartID == "" {
		return errors.New("CHART_ID is required")
	}
	if c.ChartWindow <= 0 {
		return errors.New("CHART_WINDOW must be positive")
	}
	if c.ChartLogMin >= c.ChartLogMax {
		return errors.New("CHART_LOG_MIN must be below CHART_LOG_MAX")
	}
	if c.MinColumnCoverage < 0 || c.MinColumnCoverage > 100 {
		return errors.New("MIN_COLUMN_COVERAGE must be between 0 and 100")
	}
	if c.HampelWindow < 3 || c.HampelWindow%2 == 0 {
		return errors.New("HAMPEL_WINDOW must be an odd number of at least 3")
	}
	if c.HampelSigma <= 0 {
		return errors.New("HAMPEL_SIGMA must be positive")
	}
	if c.MinSamples < 1 {
		return errors.New("MIN_SAMPLES must be at least 1")
	}
	if c.ThresholdReverifyInterval <= 0 {
		return errors.New("THRESHOLD_REVERIFY_INTERVAL must be positive")
	}
	if c.ThresholdMaxShift <= 0 {
		return errors.New("THRESHOLD_MAX_SHIFT must be positive")
	}
	f := c.ThresholdFallback
	if err := domain.ValidateThresholds(f[0], f[1], f[2]); err != nil {
		return fmt.Errorf("invalid THRESHOLD_FALLBACK: %w", err)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	return nil
}

// DigitizeParams returns the digitizer defaults with the configured overrides applied.
func (c *Config) DigitizeParams() digitize.Params {
	p := digitize.DefaultParams()
	p.MinCoveragePct = c.MinColumnCoverage
	p.HampelWindow = c.HampelWindow
	p.HampelSigma = c.HampelSigma
	p.Axis.Window = c.ChartWindow
	p.Axis.LogMin = c.ChartLogMin
	p.Axis.LogMax = c.ChartLogMax
	return p
}

// CalibrateParams returns the calibrator defaults with the configured
// overrides applied. The axis always matches DigitizeParams.
func (c *Config) CalibrateParams() calibrate.Params {
	p := calibrate.DefaultParams()
	p.ReverifyInterval = c.ThresholdReverifyInterval
	p.MaxShift = c.ThresholdMaxShift
	p.Fallback = c.ThresholdFallback
	p.Axis = c.DigitizeParams().Axis
	return p
}

func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parser reads typed variables and keeps the first error.
type parser struct {
	err error
}

func (p *parser) raw(name, def string) string {
	return strings.TrimSpace(sharedcfg.EnvOrDefault(name, def))
}

func (p *parser) fail(name string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", name, err)
	}
}

func (p *parser) duration(name, def string) time.Duration {
	d, err := time.ParseDuration(p.raw(name, def))
	if err != nil {
		p.fail(name, err)
	}
	return d
}

func (p *parser) float(name, def string) float64 {
	f, err := strconv.ParseFloat(p.raw(name, def), 64)
	if err != nil {
		p.fail(name, err)
	}
	return f
}

func (p *parser) int(name, def string) int {
	n, err := strconv.Atoi(p.raw(name, def))
	if err != nil {
		p.fail(name, err)
	}
	return n
}

func (p *parser) triple(name, def string) [3]float64 {
	var out [3]float64
	parts := strings.Split(p.raw(name, def), ",")
	if len(parts) != 3 {
		p.fail(name, fmt.Errorf("want three comma-separated values, got %d", len(parts)))
		return out
	}
	for i, s := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			p.fail(name, err)
			return out
		}
		out[i] = f
	}
	return out
}
