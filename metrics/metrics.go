package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xively"

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokenFetches    *prometheus.CounterVec
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer, constLabels prometheus.Labels) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP attempts issued by the shared client",
			ConstLabels: constLabels,
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "Duration of a single HTTP attempt",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method"}),
		TokenFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "csrf_token_fetches_total",
			Help:        "CSRF token fetches by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}

	registry.MustRegister(m.Requests)
	registry.MustRegister(m.RequestDuration)
	registry.MustRegister(m.TokenFetches)

	return m
}

// ObserveAttempt records one HTTP attempt. A transport failure is counted with code "error".
func (m *Metrics) ObserveAttempt(req *http.Request, resp *http.Response, err error, dur time.Duration) {
	if m == nil || req == nil {
		return
	}
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	m.Requests.WithLabelValues(req.Method, code).Inc()
	m.RequestDuration.WithLabelValues(req.Method).Observe(dur.Seconds())
}

// ObserveTokenFetch counts a token fetch outcome.
func (m *Metrics) ObserveTokenFetch(result string) {
	if m == nil {
		return
	}
	m.TokenFetches.WithLabelValues(result).Inc()
}
