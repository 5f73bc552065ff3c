package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramRenderTotal,
		telegramRateLimitTriggeredTotal,
		alertsTotal,
		ordersPlacedTotal,
	)
}

var (
	telegramRenderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_render_total",
			Help: "Render actions sent to Telegram by kind and result.",
		},
		[]string{"kind", "result"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times chats have been rate-limited.",
		},
	)

	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_total",
			Help: "Operational alerts by sink and result (sent, failed, dropped).",
		},
		[]string{"sink", "result"},
	)

	ordersPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Checkouts that reached the order placed state.",
		},
	)
)

func IncRender(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	telegramRenderTotal.WithLabelValues(norm(kind), result).Inc()
}

func IncRateLimitTriggered() { telegramRateLimitTriggeredTotal.Inc() }

func IncAlert(sink, result string) { alertsTotal.WithLabelValues(norm(sink), norm(result)).Inc() }

func IncOrderPlaced() { ordersPlacedTotal.Inc() }
