// Package controllers is the boundary between the HTTP and CLI surfaces and
// the stores. Store errors stop here: they are logged, counted, and turned
// into an empty, false or placeholder result.
package controllers

import (
	"context"
	"time"

	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/logging"
	"stickgpt/stickgpt/utils/metrics"

	"go.uber.org/zap"
)

// track starts timing an operation. The returned func records the outcome.
func track(ctx context.Context, m metrics.Collector, operation string) func(err error) {
	start := time.Now()
	logDone := logging.LogDuration(ctx, operation)

	return func(err error) {
		logDone()
		elapsed := time.Since(start).Milliseconds()
		if err == nil {
			m.RecordOperation(ctx, operation, metrics.StatusSuccess, elapsed)
			return
		}
		errType := stores.ClassifyError(err)
		m.RecordOperation(ctx, operation, metrics.StatusError, elapsed)
		m.RecordError(ctx, operation, errType)

		fields := []zap.Field{
			zap.String("operation", operation),
			zap.String("error_type", errType),
			zap.Error(err),
		}
		switch errType {
		case stores.ErrTypeNotFound, stores.ErrTypeValidation:
			logging.AppLogger.Warn("store operation rejected", fields...)
		default:
			logging.ErrorLogger.Error("store operation failed", fields...)
		}
	}
}

func orNoop(m metrics.Collector) metrics.Collector {
	if m == nil {
		return metrics.NewNoopCollector()
	}
	return m
}
