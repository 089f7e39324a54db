package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

// ErrAcquireTimeout is the cancellation cause when no connection was obtained in time.
var ErrAcquireTimeout = errors.New("httpx: timed out acquiring a connection")

// AcquireTimeout returns a Middleware that aborts a round trip which has not obtained
// a connection (from the idle pool or a new dial) within d.
// Every connection request restarts the clock, and obtaining one stops it.
func AcquireTimeout(d time.Duration) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if d <= 0 {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx, cancel := context.WithCancelCause(req.Context())
			w := &acquireWatch{d: d, fire: func() { cancel(ErrAcquireTimeout) }}
			trace := &httptrace.ClientTrace{
				GetConn: func(string) { w.start() },
				GotConn: func(httptrace.GotConnInfo) { w.stop() },
			}

			resp, err := next.RoundTrip(req.WithContext(httptrace.WithClientTrace(ctx, trace)))
			w.stop()
			if err != nil {
				if errors.Is(context.Cause(ctx), ErrAcquireTimeout) {
					err = errors.Join(ErrAcquireTimeout, err)
				}
				cancel(nil)
				return nil, err
			}
			return withBodyCancel(resp, func() { cancel(nil) }), nil
		})
	}
}

// acquireWatch holds at most one pending timer. The transport asks for a
// connection again when a reused one turns out dead, so start may run
// several times per round trip.
type acquireWatch struct {
	d    time.Duration
	fire func()

	mu    sync.Mutex
	timer *time.Timer
}

func (w *acquireWatch) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.d, w.fire)
}

func (w *acquireWatch) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// withBodyCancel releases cancel once resp's body is closed, or at once when
// there is no body. The derived context must outlive RoundTrip until then.
func withBodyCancel(resp *http.Response, cancel func()) *http.Response {
	if resp == nil || resp.Body == nil {
		cancel()
		return resp
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp
}

type cancelOnClose struct {
	io.ReadCloser
	cancel func()
	once   sync.Once
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.cancel)
	return err
}
