package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protu_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"call", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protu_api_request_duration_seconds",
			Help:    "Duration of backend API requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"call"},
	)
)

// RegisterMetrics registers the client collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{requestCounter, requestDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func observe(call, status string, start time.Time) {
	requestCounter.WithLabelValues(call, status).Inc()
	requestDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
