package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Loggers start as no-ops so packages and tests can log before InitLogger.
var (
	AppLogger     = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger   = zap.NewNop()
	ErrorLogger   = zap.NewNop()
)

type traceIDKey struct{}

// WithTraceID attaches a trace id picked up by LogDuration.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func ensureLogsDir(dir string) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		panic("Failed to create logs directory: " + err.Error())
	}
}

// InitLogger writes app, request, timer and error logs as rotated JSON files under dir.
func InitLogger(dir string) {
	if dir == "" {
		dir = "./logs"
	}
	ensureLogsDir(dir)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	newCore := func(name string, maxSize, maxAge int, level zapcore.Level) zapcore.Core {
		return zapcore.NewCore(encoder,
			zapcore.AddSync(&lumberjack.Logger{
				Filename: filepath.Join(dir, name), MaxSize: maxSize, MaxAge: maxAge, Compress: true,
			}),
			level,
		)
	}

	AppLogger = zap.New(newCore("app.log", 100, 28, zap.InfoLevel))
	RequestLogger = zap.New(newCore("request.log", 50, 7, zap.InfoLevel))
	TimerLogger = zap.New(newCore("timer.log", 50, 7, zap.InfoLevel))
	// error.log also mirrors to stderr so failures show up when run from a terminal
	ErrorLogger = zap.New(zapcore.NewTee(
		newCore("error.log", 100, 30, zap.ErrorLevel),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.ErrorLevel),
	))
}

// Sync flushes every logger.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	traceID, _ := ctx.Value(traceIDKey{}).(string)

	return func() {
		duration := time.Since(start).Milliseconds()
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", duration),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}

		// write ONLY to timer.log
		TimerLogger.Info("Function timed", fields...)
	}
}
