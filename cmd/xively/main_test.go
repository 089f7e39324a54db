package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/myna-project/xively/xively"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCmd_FromEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set(xively.CSRFHeader, "cli-token")
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("XIVELY_BASE_URL", srv.URL)

	out, err := run(t, "token", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "error")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if strings.TrimSpace(out) != "cli-token" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGetCmd_FromFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/token":
			w.Header().Set(xively.CSRFHeader, "t")
		case "/v2/feeds/1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"title":"office"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "xively.yaml")
	content := "xively:\n  base_url: " + srv.URL + "/v2\n  retry_count: 1\nlog:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := run(t, "get", "/feeds/1", "--csrf", "--config", path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, "office") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestVersionCmd_Short(t *testing.T) {
	out, err := run(t, "version", "-o", "short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "v") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestLoadApp_BlankTimeoutsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xively.yaml")
	content := "xively:\n  base_url: https://api.example.com\n  connection_timeout: \"\"\n  socket_timeout: \"\"\nlog:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := loadApp(path, "")
	if err != nil {
		t.Fatalf("loadApp: %v", err)
	}
	s := a.conf.Settings()
	if *s.ConnectionTimeout != xively.DefaultConnectionTimeoutMs || *s.SocketTimeout != xively.DefaultSocketTimeoutMs {
		t.Fatalf("timeouts = %d/%d, want defaults", *s.ConnectionTimeout, *s.SocketTimeout)
	}
}
