package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIKeyHeader carries the xively API key.
const APIKeyHeader = "X-ApiKey"

type RequestOption interface{ apply(*requestConfig) }

type requestOptionFunc func(*requestConfig)

func (f requestOptionFunc) apply(c *requestConfig) { f(c) }

type requestConfig struct {
	header http.Header
	query  url.Values

	timeout time.Duration

	bodyBytes   []byte
	bodyErr     error
	contentType string

	apiKey string
}

func WithHeader(key, value string) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Set(key, value)
	})
}

func WithQueryParam(key, value string) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		if c.query == nil {
			c.query = make(url.Values)
		}
		c.query.Add(key, value)
	})
}

// WithRequestTimeout sets a per-request deadline upper bound.
// If the request context already has a deadline, the earlier one wins.
func WithRequestTimeout(d time.Duration) RequestOption {
	return requestOptionFunc(func(c *requestConfig) { c.timeout = d })
}

// WithBodyBytes sets the request body as bytes (retry-safe).
func WithBodyBytes(b []byte) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		c.bodyBytes = append([]byte(nil), b...)
	})
}

// WithJSON sets the request body to a JSON-encoded value (retry-safe).
func WithJSON(v any) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		b, err := json.Marshal(v)
		if err != nil {
			c.bodyErr = err
			return
		}
		c.bodyBytes = b
		c.contentType = "application/json"
	})
}

// WithAPIKey sends key as X-ApiKey, replacing a client-wide default key.
func WithAPIKey(key string) RequestOption {
	return requestOptionFunc(func(c *requestConfig) { c.apiKey = key })
}

type requestTimeoutKey struct{}

func withRequestTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, requestTimeoutKey{}, d)
}

func requestTimeout(ctx context.Context) time.Duration {
	if ctx == nil {
		return 0
	}
	if d, ok := ctx.Value(requestTimeoutKey{}).(time.Duration); ok {
		return d
	}
	return 0
}

// NewRequest builds a request for path, resolved against the base URL when relative.
// Default headers are applied first; per-request headers override them.
func (c *Client) NewRequest(ctx context.Context, method, path string, opts ...RequestOption) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rc requestConfig
	for _, o := range opts {
		if o != nil {
			o.apply(&rc)
		}
	}
	if rc.bodyErr != nil {
		return nil, rc.bodyErr
	}

	u, err := c.resolveURL(path, rc.query)
	if err != nil {
		return nil, err
	}
	if rc.timeout > 0 {
		ctx = withRequestTimeout(ctx, rc.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), rc.body())
	if err != nil {
		return nil, err
	}
	if rc.bodyBytes != nil {
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(rc.body()), nil }
	}
	c.setHeaders(req.Header, &rc)
	return req, nil
}

func (rc *requestConfig) body() io.Reader {
	if rc.bodyBytes == nil {
		return nil
	}
	return bytes.NewReader(rc.bodyBytes)
}

// setHeaders layers client defaults, request headers and the generated
// values that are only filled in when still missing.
func (c *Client) setHeaders(h http.Header, rc *requestConfig) {
	for k, vv := range c.header {
		h[k] = append([]string(nil), vv...)
	}
	for k, vv := range rc.header {
		h[k] = append([]string(nil), vv...)
	}
	if rc.apiKey != "" {
		h.Set(APIKeyHeader, rc.apiKey)
	}
	setIfMissing(h, "Content-Type", rc.contentType)
	setIfMissing(h, "User-Agent", c.userAgent)
	if c.requestID.Header != "" && c.requestID.New != nil && h.Get(c.requestID.Header) == "" {
		setIfMissing(h, c.requestID.Header, strings.TrimSpace(c.requestID.New()))
	}
}

func setIfMissing(h http.Header, key, value string) {
	if value != "" && h.Get(key) == "" {
		h.Set(key, value)
	}
}
