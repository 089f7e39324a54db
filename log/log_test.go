package log

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(zap.New(core)).With("component", "test")

	ctx := context.Background()
	l.Debugf(ctx, "hidden %d", 1)
	l.Infof(ctx, "hello %s", "world")
	l.Errorf(ctx, "failed: %v", "boom")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "hello world" {
		t.Fatalf("unexpected message: %q", entries[0].Message)
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected level: %v", entries[1].Level)
	}
	if got := entries[1].ContextMap()["component"]; got != "test" {
		t.Fatalf("expected component field, got %v", got)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	ctx := WithFields(context.Background(), "op", "csrf_token")
	ctx = WithFields(ctx, "attempt", 2)
	l.Warnf(ctx, "slow")
	l.Infof(context.Background(), "plain")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["op"] != "csrf_token" || fields["attempt"] != int64(2) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if len(entries[1].ContextMap()) != 0 {
		t.Fatalf("fields leaked into an unrelated entry: %v", entries[1].ContextMap())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_DoesNotPanic(t *testing.T) {
	for _, cfg := range []ZapConfig{
		{Level: "debug", Mode: ModeDevelopment, Encoding: EncodingConsole, ColorEnabled: true},
		{Level: "info", Mode: ModeProduction, Encoding: EncodingJSON},
	} {
		if l := Init(cfg); l == nil {
			t.Fatalf("Init(%+v) returned nil", cfg)
		}
	}
}
