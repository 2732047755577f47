// Package logger keeps a zap logger in the context so that request, scan and
// job scoped fields follow the work through every layer.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DevelopmentEnvironment logs human readable lines from debug level up.
	DevelopmentEnvironment = "development"
	// ProductionEnvironment logs JSON lines from info level up.
	ProductionEnvironment = "production"
)

// defaultLogger is returned by Get for contexts without a logger.
var defaultLogger = zap.NewNop() //nolint: gochecknoglobals

type settings struct {
	level *zapcore.Level
	core  zapcore.Core
}

// Option adjusts the logger built by Setup.
type Option func(*settings)

// WithLevel overrides the minimum level of the environment preset.
func WithLevel(level zapcore.Level) Option {
	return func(s *settings) { s.level = &level }
}

// WithCore sends entries to core instead of stderr. The level of the core
// wins over WithLevel.
func WithCore(core zapcore.Core) Option {
	return func(s *settings) { s.core = core }
}

// Setup replaces the default logger with one configured for environment.
// Unknown environments get the development preset.
func Setup(environment string, opts ...Option) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.core != nil {
		defaultLogger = zap.New(s.core)

		return
	}

	cfg := zap.NewDevelopmentConfig()
	if environment == ProductionEnvironment {
		cfg = zap.NewProductionConfig()
	}
	if s.level != nil {
		cfg.Level = zap.NewAtomicLevelAt(*s.level)
	}

	l, err := cfg.Build()
	if err != nil {
		return
	}
	defaultLogger = l
}

type key struct{}

// Get returns the logger stored in ctx, or the default one.
func Get(ctx context.Context) *zap.Logger {
	if l, _ := ctx.Value(key{}).(*zap.Logger); l != nil {
		return l
	}

	return defaultLogger
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, key{}, l)
}

// WithFields stores a child of the current logger that always adds fields.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// Named stores a named child of the current logger, so that a component's
// lines can be filtered by logger name.
func Named(ctx context.Context, name string) context.Context {
	return WithLogger(ctx, Get(ctx).Named(name))
}

// Sync flushes buffered entries of the logger in ctx.
func Sync(ctx context.Context) {
	_ = Get(ctx).Sync()
}

// IsDebug reports whether the logger in ctx writes debug entries.
func IsDebug(ctx context.Context) bool {
	return Get(ctx).Core().Enabled(zapcore.DebugLevel)
}

func Debug(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Error(msg, fields...)
}

func Fatal(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Fatal(msg, fields...)
}
