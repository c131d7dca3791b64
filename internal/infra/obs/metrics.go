package obs

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratepilot/internal/domain/shared/errs"
)

var (
	// http requests per route, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratepilot_http_requests_total",
			Help: "Total API requests received",
		},
		[]string{"route", "method", "status"},
	)

	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratepilot_http_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// bus dispatches labelled by kind (command|query), key and outcome
	DispatchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratepilot_dispatch_total",
			Help: "Commands and queries handled",
		},
		[]string{"kind", "key", "outcome"},
	)

	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratepilot_dispatch_duration_seconds",
			Help:    "Handler latency per command or query",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "key"},
	)

	// outbox relay results
	OutboxRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratepilot_outbox_events_total",
			Help: "Outbox events relayed to the broker",
		},
		[]string{"status"},
	)

	// quotes served from cache while a provider was down
	StaleQuotes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ratepilot_stale_quotes_total",
			Help: "Quotes answered from the cache",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestCount, RequestLatency, DispatchCount, DispatchLatency, OutboxRelayed, StaleQuotes)
}

// ObserveDispatch matches middleware.Observer.
func ObserveDispatch(kind, key string, took time.Duration, err error) {
	DispatchCount.WithLabelValues(kind, key, outcome(err)).Inc()
	DispatchLatency.WithLabelValues(kind, key).Observe(took.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrInvalidDate):
		return "invalid"
	case errors.Is(err, errs.ErrDataUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
