package woocommerce

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extractor.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RecordsTotal    *prometheus.CounterVec
	PagesTotal      *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	FilesTotal      *prometheus.CounterVec
	PublishTotal    *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woocommerce_requests_total",
			Help: "Total API requests by endpoint and HTTP status.",
		},
		[]string{"endpoint", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "woocommerce_request_duration_seconds",
			Help:    "API request latency by endpoint.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woocommerce_records_total",
			Help: "Records accumulated by endpoint.",
		},
		[]string{"endpoint"},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woocommerce_pages_total",
			Help: "Pages fetched by endpoint.",
		},
		[]string{"endpoint"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woocommerce_errors_total",
			Help: "Extraction errors by type.",
		},
		[]string{"error_type"},
	)
	files := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woocommerce_files_written_total",
			Help: "Output files written by format.",
		},
		[]string{"format"},
	)
	publishes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woocommerce_publish_total",
			Help: "Sink publish attempts by sink and result.",
		},
		[]string{"sink", "result"},
	)

	registry.MustRegister(requests, requestDuration, records, pages, errorsTotal, files, publishes)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		RecordsTotal:    records,
		PagesTotal:      pages,
		ErrorsTotal:     errorsTotal,
		FilesTotal:      files,
		PublishTotal:    publishes,
	}
}

// ObserveRequest records one API request. status 0 means no response.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// AddPage records a fetched page and its record count.
func (m *Metrics) AddPage(endpoint string, records int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(endpoint).Inc()
	m.RecordsTotal.WithLabelValues(endpoint).Add(float64(records))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncFile counts a written output file.
func (m *Metrics) IncFile(format string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(format).Inc()
}

// IncPublish counts a sink publish attempt.
func (m *Metrics) IncPublish(sink string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.PublishTotal.WithLabelValues(sink, result).Inc()
}
