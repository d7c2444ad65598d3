package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chart_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Digitizer metrics.
	SamplesPerChart prometheus.Histogram
	ColumnCoverage  prometheus.Histogram
	CropFallbacks   prometheus.Counter
	MaskFallbacks   prometheus.Counter

	// Calibration metrics.
	ThresholdDecisions *prometheus.CounterVec // labels: decision={detected,cached,fallback}, status={ok,warning,failed}
	ThresholdStoreErrs *prometheus.CounterVec // labels: op={load,save}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// NewStandaloneMetrics creates Metrics that are never exported, for one-shot
// commands that run the engine without serving /metrics.
func NewStandaloneMetrics() *Metrics {
	return newMetrics(true)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total chart images read from the source topic."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Total messages written to the sample and threshold topics."),
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      help("Total charts that could not be digitized."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of chart images per batch extracted from Kafka."),
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SamplesPerChart: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "samples_per_chart",
			Help:      help("Number of samples recovered from one chart image."),
			Buckets:   []float64{0, 50, 100, 250, 500, 750, 1000, 2000},
		}),
		ColumnCoverage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "column_coverage_percent",
			Help:      help("Percentage of plot columns holding curve pixels after cleanup."),
			Buckets:   []float64{10, 20, 40, 60, 80, 90, 95, 100},
		}),
		CropFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crop_fallbacks_total",
			Help:      help("Charts whose plot frame was not found and used fallback geometry."),
		}),
		MaskFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mask_fallbacks_total",
			Help:      help("Charts traced from the colour fallback mask."),
		}),
		ThresholdDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_decisions_total",
			Help:      help("Threshold calibration outcomes by decision and verification status."),
		}, []string{"decision", "status"}),
		ThresholdStoreErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_store_errors_total",
			Help:      help("Threshold cache store failures by operation."),
		}, []string{"op"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.SamplesPerChart,
		m.ColumnCoverage,
		m.CropFallbacks,
		m.MaskFallbacks,
		m.ThresholdDecisions,
		m.ThresholdStoreErrs,
	}
}
