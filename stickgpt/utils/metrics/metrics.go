package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector provides Prometheus metrics for store operations.
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	collectionSize    *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewCollector creates a collector with its own registry.
func NewCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickgpt_store_operations_total",
			Help: "Total number of store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stickgpt_store_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5},
		},
		[]string{"operation"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickgpt_store_errors_total",
			Help: "Total number of store errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	collectionSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stickgpt_collection_size",
			Help: "Number of records last seen in each collection",
		},
		[]string{"collection"},
	)

	registry.MustRegister(operationsTotal, operationDuration, errorsTotal, collectionSize)

	return &MetricsCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		errorsTotal:       errorsTotal,
		collectionSize:    collectionSize,
		registry:          registry,
	}
}

func (m *MetricsCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(durationMs) / 1000.0)
}

func (m *MetricsCollector) RecordError(ctx context.Context, operation string, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

func (m *MetricsCollector) SetCollectionSize(ctx context.Context, collection string, count int64) {
	m.collectionSize.WithLabelValues(collection).Set(float64(count))
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
