package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// ErrSocketTimeout is the cancellation cause when a body read saw no data in time.
var ErrSocketTimeout = errors.New("httpx: timed out waiting for response data")

// ReadTimeout returns a Middleware that limits each read of a response body to d.
// A read that gets no data within d cancels the request and fails with
// ErrSocketTimeout. Time spent between reads is not counted, so slow consumers
// and long but steady downloads are unaffected.
func ReadTimeout(d time.Duration) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if d <= 0 {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx, cancel := context.WithCancelCause(req.Context())
			resp, err := next.RoundTrip(req.WithContext(ctx))
			if err != nil {
				cancel(nil)
				return nil, err
			}
			if resp.Body == nil {
				cancel(nil)
				return resp, nil
			}
			body := &idleBody{ReadCloser: resp.Body, ctx: ctx, d: d}
			body.timer = time.AfterFunc(d, func() { cancel(ErrSocketTimeout) })
			body.timer.Stop()
			resp.Body = body
			return withBodyCancel(resp, func() { cancel(nil) }), nil
		})
	}
}

// idleBody arms its timer only while a Read is blocked. Reads of one body
// are sequential, so the timer needs no lock.
type idleBody struct {
	io.ReadCloser
	ctx   context.Context
	d     time.Duration
	timer *time.Timer
}

func (b *idleBody) Read(p []byte) (int, error) {
	b.timer.Reset(b.d)
	n, err := b.ReadCloser.Read(p)
	b.timer.Stop()
	if err != nil && err != io.EOF && errors.Is(context.Cause(b.ctx), ErrSocketTimeout) {
		err = errors.Join(ErrSocketTimeout, err)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	return b.ReadCloser.Close()
}
