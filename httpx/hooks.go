package httpx

import (
	"net/http"
	"time"
)

// BeforeHook runs before every attempt; a non-nil error aborts the request.
type BeforeHook func(req *http.Request, attempt int) error

// AfterHook observes every attempt. resp is nil when err is not.
type AfterHook func(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int)

type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to an http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
