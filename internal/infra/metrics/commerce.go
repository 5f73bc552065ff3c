package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(commerceRequestsTotal, commerceRequestDuration, tokenRefreshTotal)
}

var (
	commerceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_requests_total",
			Help: "Commerce backend requests by operation and HTTP status (0 = no response).",
		},
		[]string{"op", "status"},
	)

	commerceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commerce_request_duration_seconds",
			Help:    "Commerce backend request latency.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8, 15},
		},
		[]string{"op"},
	)

	tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_token_refresh_total",
			Help: "Credential exchanges by result (ok, rejected, reused).",
		},
		[]string{"result"},
	)
)

func ObserveCommerceRequest(op string, status int, d time.Duration) {
	commerceRequestsTotal.WithLabelValues(norm(op), strconv.Itoa(status)).Inc()
	commerceRequestDuration.WithLabelValues(norm(op)).Observe(d.Seconds())
}

func IncTokenRefresh(result string) { tokenRefreshTotal.WithLabelValues(norm(result)).Inc() }
