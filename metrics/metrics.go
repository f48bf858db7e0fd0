// Package metrics bundles Prometheus collectors for the crawler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all collectors on a dedicated registry.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesTotal        prometheus.Counter
	LinksTotal        prometheus.Counter
	ItemsTotal        prometheus.Counter
	EmptyRecordsTotal prometheus.Counter
	BatchesTotal      prometheus.Counter
	RequestDuration   prometheus.Histogram
	ErrorsTotal       *prometheus.CounterVec
}

// New constructs and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawl_pages_total",
			Help: "Total catalog listing pages fetched.",
		},
	)
	links := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawl_links_total",
			Help: "Total unique detail links collected.",
		},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawl_items_total",
			Help: "Total detail records extracted, including empty ones.",
		},
	)
	emptyRecords := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawl_empty_records_total",
			Help: "Total extractions that produced an empty record.",
		},
	)
	batches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawl_batches_total",
			Help: "Total batches dispatched to the worker pool.",
		},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookcrawl_request_duration_seconds",
			Help:    "HTTP request latency for crawler requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookcrawl_errors_total",
			Help: "Total crawler errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(pages, links, items, emptyRecords, batches, requestDuration, errorsTotal)

	return &Metrics{
		Registry:          registry,
		PagesTotal:        pages,
		LinksTotal:        links,
		ItemsTotal:        items,
		EmptyRecordsTotal: emptyRecords,
		BatchesTotal:      batches,
		RequestDuration:   requestDuration,
		ErrorsTotal:       errorsTotal,
	}
}

// IncPages increments the listing pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// AddLinks adds n to the collected links counter.
func (m *Metrics) AddLinks(n int) {
	if m == nil {
		return
	}
	m.LinksTotal.Add(float64(n))
}

// IncItems increments the extracted items counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsTotal.Inc()
}

// IncEmptyRecords increments the empty extraction counter.
func (m *Metrics) IncEmptyRecords() {
	if m == nil {
		return
	}
	m.EmptyRecordsTotal.Inc()
}

// IncBatches increments the dispatched batches counter.
func (m *Metrics) IncBatches() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
