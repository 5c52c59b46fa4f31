package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	// BookingsCreated counts accepted booking requests.
	BookingsCreated prometheus.Counter

	// BookingsRejected counts rejected booking requests by reason code.
	BookingsRejected *prometheus.CounterVec

	// HTTPRequestsTotal counts handled requests by method and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration is the request handling latency.
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers the collectors on the default registry.
func New(namespace string) *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total number of accepted booking requests",
			},
		),

		BookingsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_rejected_total",
				Help:      "Total number of rejected booking requests",
			},
			[]string{"reason"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of handled HTTP requests",
			},
			[]string{"method", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request handling latency",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2, 5},
			},
			[]string{"method"},
		),
	}
}
