package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoBaseURL is returned for a relative path on a client without a base URL.
var ErrNoBaseURL = errors.New("httpx: relative path requires a base URL")

// Client wraps an *http.Client with base URL resolution, default headers, retries and hooks.
// It is safe for concurrent use once configured.
type Client struct {
	hc   *http.Client
	base *url.URL

	header     http.Header
	userAgent  string
	requestID  RequestIDConfig
	retry      RetryConfig
	maxErrBody int64

	before []BeforeHook
	after  []AfterHook
}

// New constructs a Client from DefaultConfig() plus the provided options.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		hc:         &http.Client{Transport: buildTransport(cfg), Jar: cfg.CookieJar},
		base:       base,
		header:     cfg.DefaultHeaders.Clone(),
		userAgent:  cfg.UserAgent,
		requestID:  cfg.RequestID,
		retry:      cfg.Retry,
		maxErrBody: cfg.MaxErrorBodyBytes,
	}
	if c.maxErrBody == 0 {
		c.maxErrBody = DefaultMaxErrorBodyBytes
	}
	if c.requestID.Header != "" && c.requestID.New == nil {
		c.requestID.New = DefaultRequestID
	}
	return c, nil
}

// parseBaseURL accepts an absolute URL and turns its path into a directory,
// so "/feeds" resolves below "https://host/v2" rather than replacing "v2".
func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errors.New("base url must be absolute")}
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	return u, nil
}

// RetryPolicy returns the retry policy the client was built with.
func (c *Client) RetryPolicy() RetryConfig { return c.retry }

// BaseURL returns the configured base URL, or nil.
func (c *Client) BaseURL() *url.URL {
	if c.base == nil {
		return nil
	}
	u := *c.base
	return &u
}

// Cookies returns the cookies the jar would send to u. It returns nil without a jar.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	if c.hc.Jar == nil || u == nil {
		return nil
	}
	return c.hc.Jar.Cookies(u)
}

// CloseIdleConnections closes idle connections held by the underlying transport.
func (c *Client) CloseIdleConnections() { c.hc.CloseIdleConnections() }

// WithHooks adds hooks executed for every attempt.
// Call it before the client is used concurrently.
func (c *Client) WithHooks(before []BeforeHook, after []AfterHook) *Client {
	c.before = append(c.before, before...)
	c.after = append(c.after, after...)
	return c
}

func (c *Client) resolveURL(ref string, q url.Values) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("httpx: empty url/path")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		if c.base == nil {
			return nil, ErrNoBaseURL
		}
		u.Path = strings.TrimPrefix(u.Path, "/")
		u.RawPath = strings.TrimPrefix(u.RawPath, "/")
		u = c.base.ResolveReference(u)
	}
	if len(q) > 0 {
		merged := u.Query()
		for k, vs := range q {
			merged[k] = append(merged[k], vs...)
		}
		u.RawQuery = merged.Encode()
	}
	return u, nil
}

// Do sends req, retrying transport failures the policy allows.
// Like http.Client.Do, any response is returned with a nil error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, false)
}

// DoStatus is Do that turns a status >= 400 into *Error. The error response
// body is read (up to MaxErrorBodyBytes), closed and replaced by the bytes read.
func (c *Client) DoStatus(req *http.Request) (*http.Response, error) {
	return c.do(req, true)
}

func (c *Client) do(req *http.Request, statusAsError bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: nil request")
	}
	d := requestTimeout(req.Context())
	if d <= 0 {
		return c.send(req, statusAsError)
	}
	ctx, cancel := context.WithTimeout(req.Context(), d)
	resp, err := c.send(req.Clone(ctx), statusAsError)
	if err != nil {
		cancel()
		return resp, err
	}
	return withBodyCancel(resp, cancel), nil
}

func (c *Client) send(req *http.Request, statusAsError bool) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if err := rewindBody(req); err != nil {
				return nil, err
			}
		}
		for _, h := range c.before {
			if err := h(req, attempt); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		for _, h := range c.after {
			h(req, resp, err, time.Since(start), attempt)
		}

		if err == nil {
			if statusAsError && resp.StatusCode >= http.StatusBadRequest {
				return resp, c.statusError(req, resp)
			}
			return resp, nil
		}
		if !c.retry.allows(req, attempt, err) || ctx.Err() != nil {
			if !statusAsError {
				return nil, err
			}
			return nil, &Error{Method: req.Method, URL: req.URL.String(), RequestID: c.requestIDOf(req, nil), Err: err}
		}
	}
}

func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return errors.New("httpx: request body cannot be replayed")
	}
	b, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = b
	return nil
}

func (c *Client) statusError(req *http.Request, resp *http.Response) error {
	var body []byte
	if resp.Body != nil {
		if c.maxErrBody > 0 {
			body, _ = io.ReadAll(io.LimitReader(resp.Body, c.maxErrBody))
		}
		_ = resp.Body.Close()
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return &Error{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		RequestID:  c.requestIDOf(req, resp),
		Body:       body,
		Err:        errors.New(http.StatusText(resp.StatusCode)),
	}
}

// requestIDOf prefers the id echoed by the server over the one sent.
func (c *Client) requestIDOf(req *http.Request, resp *http.Response) string {
	h := c.requestID.Header
	if h == "" {
		return ""
	}
	if resp != nil {
		if id := strings.TrimSpace(resp.Header.Get(h)); id != "" {
			return id
		}
	}
	return strings.TrimSpace(req.Header.Get(h))
}
