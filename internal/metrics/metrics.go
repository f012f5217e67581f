// Package metrics defines the Prometheus collectors of a geocoding run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors updated by the dispatcher.
type Metrics struct {
	RowsProcessed  *prometheus.CounterVec   // RowsProcessed counts classified rows by outcome label.
	APIErrors      prometheus.Counter       // APIErrors counts provider-reported and HTTP failures.
	RequestSeconds *prometheus.HistogramVec // RequestSeconds observes lookup latency per provider.
	ActiveWorkers  prometheus.Gauge         // ActiveWorkers is the number of lookups in flight.
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geobatch_rows_processed_total",
			Help: "Total number of spreadsheet rows classified, by outcome.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geobatch_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geobatch_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "geobatch_active_workers",
			Help: "Current number of workers performing a lookup.",
		}),
	}
}
