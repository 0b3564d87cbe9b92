package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type requestIDKey struct{}

// New builds the process-wide zap logger. Production uses the JSON encoder.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from ctx, or "".
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging for a single request.
type Logger struct {
	base      *zap.SugaredLogger
	requestID string
}

// NewLogger creates a logger with request context
func NewLogger(ctx context.Context, base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{
		base:      base.Sugar().With("request_id", requestID),
		requestID: requestID,
	}
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	l.base.Errorw("operation failed", "operation", operation, "error", err)
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.base.With("operation", operation).Errorf(format, args...)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.base.With("operation", operation).Infof(format, args...)
}

// LogWarn logs a warning with context
func (l *Logger) LogWarn(operation string, message string) {
	l.base.Warnw(message, "operation", operation)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.base.With("operation", operation).Warnf(format, args...)
}

// LogDebugf logs a formatted debug message with context
func (l *Logger) LogDebugf(operation string, format string, args ...interface{}) {
	l.base.With("operation", operation).Debugf(format, args...)
}
