package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		eventsTotal,
		transitionsTotal,
		unhandledEventsTotal,
		handlerErrorsTotal,
		partialFailuresTotal,
		handleDuration,
	)
}

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_events_total",
			Help: "Inbound chat events by kind.",
		},
		[]string{"kind"},
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_transitions_total",
			Help: "Committed state transitions.",
		},
		[]string{"from", "to"},
	)

	unhandledEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_unhandled_events_total",
			Help: "Events with no route for the session's state.",
		},
		[]string{"state", "kind"},
	)

	handlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_handler_errors_total",
			Help: "Handler failures that left the session untouched, by error class.",
		},
		[]string{"class"},
	)

	partialFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_partial_failures_total",
			Help: "Cart/inventory pairs where only the first call succeeded.",
		},
		[]string{"op", "compensated"},
	)

	handleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_handle_duration_seconds",
			Help:    "Time spent handling one event, including backend calls and rendering.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"state"},
	)
)

func IncEvent(kind string) { eventsTotal.WithLabelValues(norm(kind)).Inc() }

func IncTransition(from, to string) {
	transitionsTotal.WithLabelValues(norm(from), norm(to)).Inc()
}

func IncUnhandledEvent(state, kind string) {
	unhandledEventsTotal.WithLabelValues(norm(state), norm(kind)).Inc()
}

func IncHandlerError(class string) { handlerErrorsTotal.WithLabelValues(norm(class)).Inc() }

func IncPartialFailure(op string, compensated bool) {
	partialFailuresTotal.WithLabelValues(norm(op), strconv.FormatBool(compensated)).Inc()
}

func ObserveHandle(state string, seconds float64) {
	handleDuration.WithLabelValues(norm(state)).Observe(seconds)
}
