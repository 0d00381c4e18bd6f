package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks resolved requests by strategy and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldgate_requests_total",
		Help: "Total resolved requests by strategy and outcome",
	}, []string{"strategy", "outcome"}) // outcome: "network", "cache", "fallback"

	// CacheWriteFailures tracks non-fatal write-through failures.
	CacheWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldgate_cache_write_failures_total",
		Help: "Total write-through cache failures (response still served)",
	})

	// RequestDuration tracks resolution duration by strategy.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldgate_request_duration_seconds",
		Help:    "Request resolution duration in seconds by strategy",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"strategy"})
)
