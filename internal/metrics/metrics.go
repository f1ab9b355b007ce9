// Package metrics holds the Prometheus collectors for the HTTP API, the
// exporters and the catalog introspector. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ExportsTotal   *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
	ExportedRows   *prometheus.CounterVec

	TriggerQueryLevel prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmexport_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dmexport_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmexport_exports_total",
				Help: "Total number of export runs by kind and result",
			},
			[]string{"kind", "result"},
		),
		ExportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dmexport_export_duration_seconds",
				Help:    "Export run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"kind"},
		),
		ExportedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmexport_exported_rows_total",
				Help: "Total number of rows written to data scripts",
			},
			[]string{"schema"},
		),
		TriggerQueryLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dmexport_trigger_query_level",
				Help: "Current trigger catalog query level (0=full, 1=no type, 2=no when clause)",
			},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ExportsTotal,
		m.ExportDuration,
		m.ExportedRows,
		m.TriggerQueryLevel,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// ObserveExport records one finished export run of kind "ddl" or "data".
func (m *Metrics) ObserveExport(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.ExportsTotal.WithLabelValues(kind, result).Inc()
	m.ExportDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddExportedRows counts rows written for schema.
func (m *Metrics) AddExportedRows(schema string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ExportedRows.WithLabelValues(schema).Add(float64(n))
}

// SetTriggerQueryLevel publishes the trigger query level.
func (m *Metrics) SetTriggerQueryLevel(level int) {
	if m == nil {
		return
	}
	m.TriggerQueryLevel.Set(float64(level))
}
