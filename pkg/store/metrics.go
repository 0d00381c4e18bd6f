package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (redis, memory)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldgate_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldgate_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldgate_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "put", "match", "delete"
	)

	// GenerationsDeleted tracks purged cache generations
	GenerationsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldgate_cache_generations_deleted_total",
			Help: "Total number of cache generations deleted",
		},
	)
)
