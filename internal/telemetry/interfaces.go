package telemetry

import (
	"log"
	"time"

	"go.uber.org/zap"
)

// Clock abstracts the time source so loops can be driven deterministically
// in tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts functions into the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock for ClockFunc.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Time{}
	}
	return f()
}

// Logger exposes the logging capability required by bridge components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// WrapZap adapts a zap logger to the Logger interface.
func WrapZap(logger *zap.Logger) Logger {
	return &zapAdapter{logger: logger}
}

type zapAdapter struct {
	logger *zap.Logger
}

func (z *zapAdapter) Printf(format string, args ...any) {
	if z == nil || z.logger == nil {
		return
	}
	z.logger.Sugar().Infof(format, args...)
}

// Metrics exposes the counter surface required by bridge components.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// MetricsFunc pairs adapter functions into the Metrics interface.
type MetricsFunc struct {
	AddFunc   func(key string, delta uint64)
	StoreFunc func(key string, value uint64)
}

// Add implements Metrics for MetricsFunc.
func (m MetricsFunc) Add(key string, delta uint64) {
	if m.AddFunc == nil {
		return
	}
	m.AddFunc(key, delta)
}

// Store implements Metrics for MetricsFunc.
func (m MetricsFunc) Store(key string, value uint64) {
	if m.StoreFunc == nil {
		return
	}
	m.StoreFunc(key, value)
}
