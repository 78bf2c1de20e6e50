package metrics

import "context"

// Collector receives store operation metrics from the controllers.
// NewCollector returns the Prometheus implementation, NewNoopCollector the disabled one.
type Collector interface {
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)
	RecordError(ctx context.Context, operation string, errorType string)
	SetCollectionSize(ctx context.Context, collection string, count int64)
}

// Operation status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
