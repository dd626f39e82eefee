package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// requestIDKey is the key used to store request ID in context
type requestIDKey struct{}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process-wide zap logger. Development environments get the
// console encoder; everything else logs JSON.
func Init(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	SetBase(l)
	return l, nil
}

// SetBase replaces the process-wide logger (tests use zap.NewNop()).
func SetBase(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	base = l
	mu.Unlock()
}

// L returns the process-wide logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from a standard context
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging for services
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger with request context
func NewLogger(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{sugar: L().Sugar().With("request_id", requestID)}
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	l.sugar.Errorw(operation, "operation", operation, "error", err)
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Errorf(format, args...)
}

// LogInfo logs an info message with context
func (l *Logger) LogInfo(operation string, message string) {
	l.sugar.Infow(message, "operation", operation)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Infof(format, args...)
}

// LogWarn logs a warning with context
func (l *Logger) LogWarn(operation string, message string) {
	l.sugar.Warnw(message, "operation", operation)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.sugar.With("operation", operation).Warnf(format, args...)
}
