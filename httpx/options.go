package httpx

import (
	"net/http"
	"time"
)

type Option interface{ apply(*Config) }

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

func WithBaseURL(baseURL string) Option {
	return optionFunc(func(c *Config) { c.BaseURL = baseURL })
}

// WithConnectTimeout sets Config.ConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.ConnectTimeout = d })
}

// WithSocketTimeout sets Config.SocketTimeout.
func WithSocketTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.SocketTimeout = d })
}

// WithAcquireTimeout sets Config.AcquireTimeout.
func WithAcquireTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.AcquireTimeout = d })
}

func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *Config) { c.Transport = rt })
}

// WithCookieJar installs a cookie jar. See NewCookieJar.
func WithCookieJar(jar http.CookieJar) Option {
	return optionFunc(func(c *Config) { c.CookieJar = jar })
}

func WithDefaultHeader(key, value string) Option {
	return optionFunc(func(c *Config) {
		if c.DefaultHeaders == nil {
			c.DefaultHeaders = make(http.Header)
		}
		c.DefaultHeaders.Set(key, value)
	})
}

func WithUserAgent(ua string) Option {
	return optionFunc(func(c *Config) { c.UserAgent = ua })
}

func WithRetry(cfg RetryConfig) Option {
	return optionFunc(func(c *Config) { c.Retry = cfg })
}

// WithRetryCount keeps the current retry policy but allows n retries after the first attempt.
func WithRetryCount(n int) Option {
	return optionFunc(func(c *Config) { c.Retry.MaxAttempts = n + 1 })
}

func WithMaxErrorBodyBytes(n int64) Option {
	return optionFunc(func(c *Config) { c.MaxErrorBodyBytes = n })
}

func WithRequestID(cfg RequestIDConfig) Option {
	return optionFunc(func(c *Config) { c.RequestID = cfg })
}
