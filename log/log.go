// Package log is a ctx-first logging facade backed by zap.
package log

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"

	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// Logger is the logging surface used across the module. Fields attached to
// the ctx with WithFields are added to every entry.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
	// With returns a child logger carrying the given key/value pairs.
	With(keysAndValues ...any) Logger
}

// ZapConfig selects level, mode and encoding of the zap core.
type ZapConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// Init builds a Logger writing to stderr. Unknown levels fall back to info.
func Init(cfg ZapConfig) Logger {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	var encCfg zapcore.EncoderConfig
	if cfg.Mode == ModeDevelopment {
		encCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.ColorEnabled && cfg.Encoding != EncodingJSON {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var enc zapcore.Encoder
	if cfg.Encoding == EncodingJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.Mode == ModeDevelopment {
		opts = append(opts, zap.Development())
	}
	return New(zap.New(core, opts...))
}

// New adapts an existing zap logger.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{s: l.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return New(zap.NewNop())
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

type fieldsKey struct{}

// WithFields returns a child of ctx carrying key/value pairs. Every Logger
// method called with that ctx adds them to its entry.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	kv := make([]any, 0, len(prev)+len(keysAndValues))
	kv = append(append(kv, prev...), keysAndValues...)
	return context.WithValue(ctx, fieldsKey{}, kv)
}

func (l *zapLogger) from(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return l.s
	}
	if kv, _ := ctx.Value(fieldsKey{}).([]any); len(kv) > 0 {
		return l.s.With(kv...)
	}
	return l.s
}

func (l *zapLogger) Debugf(ctx context.Context, format string, args ...any) {
	l.from(ctx).Debugf(format, args...)
}

func (l *zapLogger) Infof(ctx context.Context, format string, args ...any) {
	l.from(ctx).Infof(format, args...)
}

func (l *zapLogger) Warnf(ctx context.Context, format string, args ...any) {
	l.from(ctx).Warnf(format, args...)
}

func (l *zapLogger) Errorf(ctx context.Context, format string, args ...any) {
	l.from(ctx).Errorf(format, args...)
}

func (l *zapLogger) With(keysAndValues ...any) Logger {
	return &zapLogger{s: l.s.With(keysAndValues...)}
}
