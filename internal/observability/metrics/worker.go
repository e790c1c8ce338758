package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// outcomeError labels runs that stopped on an infrastructure error before an
// extraction status could be recorded.
const outcomeError = "error"

// WorkerMetrics tracks queued document processing. Runs are labelled by the
// extraction status they ended with, so OCR misses and scans without text stay
// visible next to outright failures.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	processed  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   prometheus.Gauge
	queueLag   prometheus.Histogram
	queueDrops prometheus.Counter
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &WorkerMetrics{
		service:  service,
		registry: registry,
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "docsort",
			Subsystem:   "worker",
			Name:        "documents_processed_total",
			Help:        "Processed documents by extraction status and strategy; status=error when processing aborted.",
			ConstLabels: constLabels,
		}, []string{"extraction_status", "strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "docsort",
			Subsystem:   "worker",
			Name:        "document_process_duration_seconds",
			Help:        "Wall time from job start to the final status write.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"extraction_status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "docsort",
			Subsystem:   "worker",
			Name:        "documents_in_flight",
			Help:        "Documents currently being extracted and classified.",
			ConstLabels: constLabels,
		}),
		queueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "docsort",
			Subsystem:   "worker",
			Name:        "upload_to_start_seconds",
			Help:        "Delay between upload and the start of processing.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		queueDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "docsort",
			Subsystem:   "worker",
			Name:        "jobs_rejected_total",
			Help:        "Ingestion events that could not be handed to the worker pool.",
			ConstLabels: constLabels,
		}),
	}

	registry.MustRegister(m.processed, m.duration, m.inFlight, m.queueLag, m.queueDrops)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *WorkerMetrics) StartDocument() {
	m.inFlight.Inc()
}

// FinishDocument records one processing run. A non-nil err wins over the
// result, since the document was marked failed.
func (m *WorkerMetrics) FinishDocument(duration time.Duration, result domain.ExtractionResult, err error) {
	m.inFlight.Dec()

	status, strategy := outcomeError, string(domain.StrategyNone)
	if err == nil {
		status = string(result.Status)
		if result.Strategy != "" {
			strategy = string(result.Strategy)
		}
	}
	m.processed.WithLabelValues(status, strategy).Inc()
	m.duration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(uploadedAt time.Time) {
	lag := time.Since(uploadedAt)
	if uploadedAt.IsZero() || lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}

func (m *WorkerMetrics) RejectJob() {
	m.queueDrops.Inc()
}
