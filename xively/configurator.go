package xively

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/myna-project/xively/httpx"
	"github.com/myna-project/xively/log"
	"github.com/myna-project/xively/metrics"
	"github.com/myna-project/xively/version"
)

const (
	CSRFHeader   = "X-CSRF-TOKEN"
	APIKeyHeader = httpx.APIKeyHeader
)

// Configurator owns the HTTP settings and the one shared client built from them.
type Configurator struct {
	mu       sync.Mutex
	settings Settings
	frozen   bool

	buildOnce sync.Once
	client    *httpx.Client
	buildErr  error

	// fetchMu serializes the whole fetch-and-store of LoadCSRFToken.
	fetchMu sync.Mutex
	tokenMu sync.RWMutex
	token   string

	l         log.Logger
	metrics   *metrics.Metrics
	transport http.RoundTripper
}

type Option func(*Configurator)

func WithLogger(l log.Logger) Option {
	return func(c *Configurator) {
		if l != nil {
			c.l = l
		}
	}
}

// WithMetrics records every attempt and token fetch in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Configurator) { c.metrics = m }
}

// WithTransport replaces the tuned default transport. Connect and socket
// timeouts only apply when rt is an *http.Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Configurator) { c.transport = rt }
}

// New returns a Configurator for s with defaults applied. It never fails;
// an unusable BaseURL surfaces from HTTPClient.
func New(s Settings, opts ...Option) *Configurator {
	c := &Configurator{settings: s.withDefaults()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.l == nil {
		c.l = log.Init(log.ZapConfig{Level: "info", Mode: log.ModeProduction, Encoding: log.EncodingConsole})
	}
	c.l = c.l.With("component", "xively")
	return c
}

var (
	defaultOnce sync.Once
	defaultInst *Configurator
)

// Default returns the process-wide Configurator, reading the xively section of
// the global viper registry on first use. Every call returns the same instance.
func Default() *Configurator {
	defaultOnce.Do(func() {
		defaultInst = New(SettingsFromViper(viper.GetViper()))
	})
	return defaultInst
}

// Settings returns a copy of the current settings.
func (c *Configurator) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.clone()
}

// Built reports whether the shared client exists.
func (c *Configurator) Built() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// SetRetryCount sets how many times a failed request is retried.
// It has no effect once the client is built.
func (c *Configurator) SetRetryCount(n int) {
	c.update("retry_count", n, func(s *Settings) { s.RetryCount = intPtr(n) })
}

// SetConnectionTimeout sets the connection timeout in milliseconds.
// It has no effect once the client is built.
func (c *Configurator) SetConnectionTimeout(ms int) {
	c.update("connection_timeout", ms, func(s *Settings) { s.ConnectionTimeout = intPtr(ms) })
}

// SetSocketTimeout sets the socket timeout in milliseconds.
// It has no effect once the client is built.
func (c *Configurator) SetSocketTimeout(ms int) {
	c.update("socket_timeout", ms, func(s *Settings) { s.SocketTimeout = intPtr(ms) })
}

func (c *Configurator) update(name string, value int, set func(*Settings)) {
	c.mu.Lock()
	set(&c.settings)
	frozen := c.frozen
	c.mu.Unlock()

	if frozen {
		c.l.Warnf(context.Background(), "xively.Configurator: %s=%d recorded but the HTTP client is already built; the change is not applied", name, value)
	}
}

// HTTPClient returns the shared client, building it on the first call.
// Later calls return the same client (or the same build error).
func (c *Configurator) HTTPClient() (*httpx.Client, error) {
	c.buildOnce.Do(func() {
		c.client, c.buildErr = c.build()
		if c.buildErr != nil {
			c.l.Errorf(context.Background(), "xively.Configurator.HTTPClient: %v", c.buildErr)
		}
	})
	return c.client, c.buildErr
}

func (c *Configurator) build() (*httpx.Client, error) {
	c.mu.Lock()
	s := c.settings.clone()
	c.frozen = true
	c.mu.Unlock()

	connect := s.connectTimeout()
	opts := []httpx.Option{
		httpx.WithBaseURL(s.BaseURL),
		httpx.WithConnectTimeout(connect),
		httpx.WithSocketTimeout(s.socketTimeout()),
		httpx.WithAcquireTimeout(connect),
		httpx.WithCookieJar(httpx.NewCookieJar()),
		httpx.WithRetry(httpx.IOErrorRetryConfig(s.retries())),
		httpx.WithUserAgent(s.UserAgent),
	}
	if s.APIKey != "" {
		opts = append(opts, httpx.WithDefaultHeader(APIKeyHeader, s.APIKey))
	}
	if c.transport != nil {
		opts = append(opts, httpx.WithTransport(c.transport))
	}

	hc, err := httpx.New(opts...)
	if err != nil {
		return nil, err
	}
	hc.WithHooks(
		[]httpx.BeforeHook{c.attachCSRFToken},
		[]httpx.AfterHook{c.afterAttempt},
	)

	c.l.Debugf(context.Background(), "xively.Configurator: client built base_url=%q connect=%s socket=%s retries=%d",
		s.BaseURL, connect, s.socketTimeout(), s.retries())
	return hc, nil
}

func (c *Configurator) afterAttempt(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int) {
	c.metrics.ObserveAttempt(req, resp, err, dur)
	ctx := log.WithFields(req.Context(), "attempt", attempt, "request_id", req.Header.Get("X-Request-ID"))
	if err != nil {
		c.l.Debugf(ctx, "xively: %s %s failed after %s: %v", req.Method, req.URL.Redacted(), dur, err)
		return
	}
	c.l.Debugf(ctx, "xively: %s %s status=%d dur=%s", req.Method, req.URL.Redacted(), resp.StatusCode, dur)
}

func defaultUserAgent() string {
	return version.Get().UserAgent("xively-go")
}
