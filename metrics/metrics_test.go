package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAttempt(t *testing.T) {
	m := New(prometheus.NewRegistry(), prometheus.Labels{"app": "test"})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/token", nil)

	m.ObserveAttempt(req, &http.Response{StatusCode: http.StatusOK}, nil, 10*time.Millisecond)
	m.ObserveAttempt(req, nil, errors.New("reset"), time.Millisecond)
	m.ObserveAttempt(req, nil, errors.New("reset"), time.Millisecond)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "200")); got != 1 {
		t.Fatalf("expected 1 ok attempt, got %v", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "error")); got != 2 {
		t.Fatalf("expected 2 failed attempts, got %v", got)
	}
	if got := testutil.CollectAndCount(m.RequestDuration); got != 1 {
		t.Fatalf("expected 1 histogram series, got %d", got)
	}
}

func TestObserveTokenFetch(t *testing.T) {
	m := New(prometheus.NewRegistry(), nil)
	m.ObserveTokenFetch("ok")
	m.ObserveTokenFetch("network_error")
	m.ObserveTokenFetch("ok")

	if got := testutil.ToFloat64(m.TokenFetches.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTokenFetch("ok")
	m.ObserveAttempt(nil, nil, nil, 0)
}
