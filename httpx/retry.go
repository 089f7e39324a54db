package httpx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// RetryConfig decides whether a failed attempt is sent again.
// Only transport failures are retried; any HTTP response ends the request.
type RetryConfig struct {
	// MaxAttempts includes the initial attempt. If <= 1, retries are disabled.
	MaxAttempts int

	// Methods lists HTTP methods eligible for retries.
	// If empty, the idempotent methods are used.
	Methods map[string]bool

	// Retryable reports whether a transport error is worth another attempt.
	// If nil, RetryIOErrors is used.
	Retryable func(error) bool
}

// IOErrorRetryConfig allows n retries of idempotent requests on I/O failures
// (see RetryIOErrors). Retries start immediately.
//
// POST and PATCH are never retried, not even when the failure happened before
// the request was written. A request that may have reached the server is only
// sent again when the method makes a duplicate harmless.
func IOErrorRetryConfig(n int) RetryConfig {
	return RetryConfig{
		MaxAttempts: n + 1,
		Methods:     idempotentMethods(),
		Retryable:   RetryIOErrors,
	}
}

// Retries is the number of attempts allowed after the first one.
func (c RetryConfig) Retries() int {
	if c.MaxAttempts <= 1 {
		return 0
	}
	return c.MaxAttempts - 1
}

func idempotentMethods() map[string]bool {
	return map[string]bool{
		http.MethodGet:     true,
		http.MethodHead:    true,
		http.MethodPut:     true,
		http.MethodDelete:  true,
		http.MethodOptions: true,
		http.MethodTrace:   true,
	}
}

// allows reports whether req may be sent again after attempt failed with err.
func (c RetryConfig) allows(req *http.Request, attempt int, err error) bool {
	if attempt >= c.MaxAttempts {
		return false
	}
	methods := c.Methods
	if len(methods) == 0 {
		methods = idempotentMethods()
	}
	if !methods[strings.ToUpper(req.Method)] {
		return false
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	retryable := c.Retryable
	if retryable == nil {
		retryable = RetryIOErrors
	}
	return retryable(err)
}

// RetryIOErrors retries broken or reset connections and reports false for failures
// another attempt cannot fix: cancellation, timeouts, unknown hosts, refused
// connections and TLS errors.
func RetryIOErrors(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrAcquireTimeout) || errors.Is(err, ErrSocketTimeout) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	var (
		recErr  tls.RecordHeaderError
		certErr *tls.CertificateVerificationError
		uaErr   x509.UnknownAuthorityError
		hostErr x509.HostnameError
	)
	if errors.As(err, &recErr) || errors.As(err, &certErr) || errors.As(err, &uaErr) || errors.As(err, &hostErr) {
		return false
	}
	return true
}
