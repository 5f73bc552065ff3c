package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo, catalogProducts, redisCommandsTotal)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "A constant metric labelled with version, commit and Go runtime.",
		},
		[]string{"version", "commit", "goversion"},
	)

	catalogProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shop_catalog_products",
			Help: "Products loaded from the commerce backend at startup.",
		},
	)

	redisCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Redis commands by name and result (ok, miss, error).",
		},
		[]string{"cmd", "result"},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

func SetCatalogSize(n int) { catalogProducts.Set(float64(n)) }

func IncRedisCommand(cmd, result string) {
	redisCommandsTotal.WithLabelValues(norm(cmd), norm(result)).Inc()
}
