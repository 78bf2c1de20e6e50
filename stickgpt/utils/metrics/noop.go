package metrics

import "context"

// NoopCollector is used when metrics are disabled.
type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (n *NoopCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
}

func (n *NoopCollector) RecordError(ctx context.Context, operation string, errorType string) {}

func (n *NoopCollector) SetCollectionSize(ctx context.Context, collection string, count int64) {}
