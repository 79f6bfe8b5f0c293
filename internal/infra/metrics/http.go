package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestDurationMs, rateLimitedTotal) }

var (
	httpRequestDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds by route pattern and status code.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"method", "route", "status"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the API rate limiter.",
		},
	)
)

func ObserveHTTPRequest(method, route string, status int, ms float64) {
	httpRequestDurationMs.WithLabelValues(method, route, strconv.Itoa(status)).Observe(ms)
}

func IncRateLimited() { rateLimitedTotal.Inc() }
