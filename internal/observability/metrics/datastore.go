package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations
type DatastoreMetrics struct {
	queryTotal       *prometheus.CounterVec
	queryErrorsTotal *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{
		queryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datastore_queries_total",
				Help: "Total number of datastore queries",
			},
			[]string{"operation"},
		),
		queryErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datastore_query_errors_total",
				Help: "Total number of failed datastore queries",
			},
			[]string{"operation"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datastore_query_duration_seconds",
				Help:    "Time taken for datastore queries",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
			},
			[]string{"operation"},
		),
	}

	for _, collector := range []prometheus.Collector{m.queryTotal, m.queryErrorsTotal, m.queryDuration} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordQuery records a completed datastore query
func (m *DatastoreMetrics) RecordQuery(operation string, err error, duration time.Duration) {
	m.queryTotal.WithLabelValues(operation).Inc()
	m.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.queryErrorsTotal.WithLabelValues(operation).Inc()
	}
}
