// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	Checkouts    *prometheus.CounterVec
	OutboxSent   prometheus.Counter
	OutboxErrors prometheus.Counter
}

func New() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"result"})
	outboxSent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "outbox_published_total",
		Help:      "Outbox records published to the notification transport.",
	})
	outboxErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "outbox_publish_errors_total",
		Help:      "Outbox publish attempts that failed.",
	})

	prometheus.MustRegister(requests, latency, checkouts, outboxSent, outboxErrors)
	return &Metrics{
		Requests:     requests,
		LatencyMS:    latency,
		Checkouts:    checkouts,
		OutboxSent:   outboxSent,
		OutboxErrors: outboxErrors,
	}
}

// Handler serves the default registry for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
