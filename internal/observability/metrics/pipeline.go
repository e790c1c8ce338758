package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// PipelineMetrics observes extraction and classification outcomes.
type PipelineMetrics struct {
	service string

	extractionTotal    *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	classifyTotal      *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	extractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Name:      "extraction_total",
			Help:      "Extraction results by strategy and status.",
		},
		[]string{"service", "strategy", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Name:      "extraction_duration_seconds",
			Help:      "Extraction duration in seconds by strategy.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "strategy"},
	)
	classifyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Name:      "classification_total",
			Help:      "Classification outcomes: matched, unresolved or no_match.",
		},
		[]string{"service", "result"},
	)

	registerer.MustRegister(extractionTotal, extractionDuration, classifyTotal)

	return &PipelineMetrics{
		service:            service,
		extractionTotal:    extractionTotal,
		extractionDuration: extractionDuration,
		classifyTotal:      classifyTotal,
	}
}

func (m *PipelineMetrics) ObserveExtraction(result domain.ExtractionResult, seconds float64) {
	strategy := string(result.Strategy)
	if strategy == "" {
		strategy = string(domain.StrategyNone)
	}
	m.extractionTotal.WithLabelValues(m.service, strategy, string(result.Status)).Inc()
	if seconds >= 0 {
		m.extractionDuration.WithLabelValues(m.service, strategy).Observe(seconds)
	}
}

func (m *PipelineMetrics) ObserveClassification(outcome domain.ClassificationOutcome) {
	m.classifyTotal.WithLabelValues(m.service, classificationResult(outcome)).Inc()
}

func classificationResult(outcome domain.ClassificationOutcome) string {
	switch {
	case outcome.CategoryID != nil:
		return "matched"
	case outcome.Unresolved:
		return "unresolved"
	default:
		return "no_match"
	}
}
