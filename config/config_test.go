package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/myna-project/xively/log"
)

type testHTTP struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout *int   `mapstructure:"timeout"`
}

type testConfig struct {
	HTTP  testHTTP `mapstructure:"http"`
	Level string   `mapstructure:"level"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "http:\n  base_url: https://api.example.com\n  timeout: 1500\n")

	cfg, err := Load(path, WithDefaults[testConfig](map[string]any{"level": "info"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := cfg.Get()
	if got.HTTP.BaseURL != "https://api.example.com" {
		t.Fatalf("unexpected base url: %q", got.HTTP.BaseURL)
	}
	if got.HTTP.Timeout == nil || *got.HTTP.Timeout != 1500 {
		t.Fatalf("unexpected timeout: %v", got.HTTP.Timeout)
	}
	if got.Level != "info" {
		t.Fatalf("expected default level, got %q", got.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load[testConfig](filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadOptional_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("XTEST_HTTP_BASE_URL", "https://env.example.com")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"),
		WithEnv[testConfig]("XTEST"),
		WithEnvKeys[testConfig]("http.base_url", "http.timeout"),
	)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	got := cfg.Get()
	if got.HTTP.BaseURL != "https://env.example.com" {
		t.Fatalf("unexpected base url: %q", got.HTTP.BaseURL)
	}
	if got.HTTP.Timeout != nil {
		t.Fatalf("expected unset timeout, got %v", *got.HTTP.Timeout)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "http:\n  timeout: 10\n")

	cfg, err := Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := cfg.Get()
	*a.HTTP.Timeout = 99
	if b := cfg.Get(); *b.HTTP.Timeout != 10 {
		t.Fatalf("Get leaked internal state: %d", *b.HTTP.Timeout)
	}
}

func TestOnChange_FiresOnFileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "level: info\n")

	cfg, err := Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	changed := make(chan testConfig, 1)
	cfg.OnChange(func(old, new testConfig) {
		if Changed(old.Level, new.Level) {
			select {
			case changed <- new:
			default:
			}
		}
	})

	writeFile(t, path, "level: debug\n")

	select {
	case got := <-changed:
		if got.Level != "debug" {
			t.Fatalf("unexpected level: %q", got.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("OnChange was not called")
	}
}

func TestReload_BadFileKeepsValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "level: info\n")

	cfg, err := Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	core, logs := observer.New(zapcore.WarnLevel)
	cfg.SetLogger(log.New(zap.New(core)))

	cfg.OnChange(func(old, new testConfig) { panic("boom") })
	levels := make(chan string, 8)
	cfg.OnChange(func(old, new testConfig) {
		select {
		case levels <- new.Level:
		default:
		}
	})

	writeFile(t, path, "level: [unclosed\n")
	deadline := time.Now().Add(5 * time.Second)
	for logs.FilterMessageSnippet("reload skipped").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("bad file was not reported")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := cfg.Get().Level; got != "info" {
		t.Fatalf("level after bad reload = %q, want info", got)
	}

	writeFile(t, path, "level: debug\n")
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-levels:
			if got != "debug" {
				continue
			}
			if logs.FilterMessageSnippet("callback panicked").Len() == 0 {
				t.Fatalf("panicking callback was not logged")
			}
			return
		case <-timeout:
			t.Fatalf("second callback did not run after the first panicked")
		}
	}
}

func TestChanged(t *testing.T) {
	if Changed(testHTTP{BaseURL: "a"}, testHTTP{BaseURL: "a"}) {
		t.Fatalf("equal values reported as changed")
	}
	if !Changed(testHTTP{BaseURL: "a"}, testHTTP{BaseURL: "b"}) {
		t.Fatalf("different values reported as unchanged")
	}
}
