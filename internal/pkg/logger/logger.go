// Package logger is a thin context-aware wrapper around zap.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	global   *zap.SugaredLogger
	globalMx sync.RWMutex
)

func init() {
	global = zap.NewNop().Sugar()
}

// Init replaces the global logger with a production zap logger at the given level.
func Init(level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return err
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	SetLogger(l.Sugar())
	return nil
}

func SetLogger(l *zap.SugaredLogger) {
	globalMx.Lock()
	defer globalMx.Unlock()
	global = l
}

func Sync() {
	_ = get(context.Background()).Sync()
}

// WithFields returns a context whose logger carries the given key/value pairs.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, get(ctx).With(keysAndValues...))
}

func get(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}

	globalMx.RLock()
	defer globalMx.RUnlock()
	return global
}

func Debug(ctx context.Context, msg string) { get(ctx).Debug(msg) }

func Debugf(ctx context.Context, format string, args ...interface{}) {
	get(ctx).Debugf(format, args...)
}

func Info(ctx context.Context, msg string) { get(ctx).Info(msg) }

func Infof(ctx context.Context, format string, args ...interface{}) { get(ctx).Infof(format, args...) }

func Warn(ctx context.Context, msg string) { get(ctx).Warn(msg) }

func Warnf(ctx context.Context, format string, args ...interface{}) { get(ctx).Warnf(format, args...) }

func Error(ctx context.Context, msg string) { get(ctx).Error(msg) }

func Errorf(ctx context.Context, format string, args ...interface{}) {
	get(ctx).Errorf(format, args...)
}

func Fatal(ctx context.Context, args ...interface{}) { get(ctx).Fatal(args...) }
