package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the catalog crawl.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	PagesTotal      *prometheus.CounterVec
	ItemsTotal      prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_requests_total",
			Help: "Total HTTP requests issued by the collector.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collector_request_duration_seconds",
			Help:    "HTTP request latency for collector requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_pages_total",
			Help: "Catalog listing pages visited, by outcome.",
		},
		[]string{"result"},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_items_total",
			Help: "Total number of items sent to the pipeline.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_errors_total",
			Help: "Total number of collector errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pages, items, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		PagesTotal:      pages,
		ItemsTotal:      items,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the requests total counter for a crawl phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPage increments the pages counter for an outcome label.
func (m *Metrics) IncPage(result string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(result).Inc()
}

// IncItems increments the items counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
