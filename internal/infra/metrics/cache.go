package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, sessionsLive) }

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Session cache lookups by result (hit, miss, corrupt).",
		},
		[]string{"cache", "result"},
	)

	sessionsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shop_sessions_live",
			Help: "Conversation sessions currently held in memory.",
		},
	)
)

func IncCacheHit(cache string)     { cacheRequestsTotal.WithLabelValues(norm(cache), "hit").Inc() }
func IncCacheMiss(cache string)    { cacheRequestsTotal.WithLabelValues(norm(cache), "miss").Inc() }
func IncCacheCorrupt(cache string) { cacheRequestsTotal.WithLabelValues(norm(cache), "corrupt").Inc() }

func SetSessionsLive(n int) { sessionsLive.Set(float64(n)) }
