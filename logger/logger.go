// Package logger wraps zap with context-aware helpers.
// Request-scoped fields (request id, page) travel in the context and are
// attached to every line logged with that context.
package logger

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(newLogger(zapcore.InfoLevel, false))
}

// Init replaces the process logger. level is a zap level name
// ("debug", "info", "warn", "error").
func Init(level string, development bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	global.Store(newLogger(lvl, development))
	return nil
}

func newLogger(lvl zapcore.Level, development bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)
	if development {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Set installs l as the process logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	global.Store(l)
}

// L returns the process logger.
func L() *zap.Logger {
	return global.Load()
}

// With returns a context carrying extra fields for later log calls.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]zap.Field)
	merged := make([]zap.Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func from(ctx context.Context) *zap.SugaredLogger {
	l := global.Load()
	if ctx != nil {
		if fields, ok := ctx.Value(ctxKey{}).([]zap.Field); ok {
			l = l.With(fields...)
		}
	}
	return l.Sugar()
}

func Debugf(ctx context.Context, format string, args ...any) {
	from(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	from(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	from(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	from(ctx).Errorf(format, args...)
}

// Fatal logs err and exits. A nil err is ignored.
func Fatal(ctx context.Context, err error) {
	if err == nil {
		return
	}
	from(ctx).Fatal(err)
}

// Sync flushes buffered entries.
func Sync() {
	_ = global.Load().Sync()
}
