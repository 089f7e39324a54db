package httpx

import (
	"context"
	"net"
	"net/http"
	"time"
)

const defaultKeepAlive = 30 * time.Second

// DefaultTransport returns a tuned clone of http.DefaultTransport.
func DefaultTransport() *http.Transport {
	base, _ := http.DefaultTransport.(*http.Transport)
	if base == nil {
		return &http.Transport{}
	}
	t := base.Clone()

	t.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: defaultKeepAlive,
	}).DialContext
	t.TLSHandshakeTimeout = 10 * time.Second
	t.ResponseHeaderTimeout = 15 * time.Second
	t.IdleConnTimeout = 90 * time.Second
	t.MaxIdleConnsPerHost = 20
	t.ForceAttemptHTTP2 = true
	return t
}

// applyTimeouts returns rt with connect/socket timeouts applied.
// Only *http.Transport can be tuned; any other RoundTripper is returned unchanged.
// The caller's transport is cloned, never mutated.
func applyTimeouts(rt http.RoundTripper, connect, socket time.Duration) http.RoundTripper {
	if connect <= 0 && socket <= 0 {
		return rt
	}
	t, ok := rt.(*http.Transport)
	if !ok {
		return rt
	}
	t = t.Clone()
	if connect > 0 {
		t.DialContext = dialWithin(t.DialContext, connect)
		// A TLS handshake is part of establishing the connection.
		t.TLSHandshakeTimeout = connect
	}
	if socket > 0 {
		t.ResponseHeaderTimeout = socket
	}
	return t
}

// dialWithin bounds dial by d. A custom dialer is kept and bounded too.
func dialWithin(dial func(ctx context.Context, network, addr string) (net.Conn, error), d time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if dial == nil {
		dial = (&net.Dialer{KeepAlive: defaultKeepAlive}).DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return dial(ctx, network, addr)
	}
}

// buildTransport stacks the per-attempt timeouts of cfg on top of its transport.
func buildTransport(cfg Config) http.RoundTripper {
	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}
	rt = applyTimeouts(rt, cfg.ConnectTimeout, cfg.SocketTimeout)
	rt = ReadTimeout(cfg.SocketTimeout)(rt)
	return AcquireTimeout(cfg.AcquireTimeout)(rt)
}
