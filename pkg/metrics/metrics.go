// Package metrics provides the centralized Prometheus metrics registry
// for the offline gateway. All metrics are defined in their respective
// packages (store, lifecycle, strategy, fallback, syncqueue) to
// maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the gateway.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/store):
//   - fieldgate_cache_hits_total{backend} (Counter): Cache hits by backend (redis, memory)
//   - fieldgate_cache_misses_total (Counter): Cache misses
//   - fieldgate_cache_errors_total{operation} (Counter): Cache operation errors
//   - fieldgate_cache_generations_deleted_total (Counter): Purged cache generations
//
// Lifecycle Metrics (pkg/lifecycle):
//   - fieldgate_installs_total{result} (Counter): Install attempts by result
//   - fieldgate_activations_total (Counter): Completed activations
//   - fieldgate_warmed_urls_total{result} (Counter): Cache pre-warm fetches by result
//
// Strategy Metrics (pkg/strategy):
//   - fieldgate_requests_total{strategy, outcome} (Counter): Resolved requests
//     by strategy (network_first, cache_first, never_cache) and outcome
//     (network, cache, fallback)
//   - fieldgate_cache_write_failures_total (Counter): Non-fatal write-through failures
//   - fieldgate_request_duration_seconds{strategy} (Histogram): Resolution duration
//
// Fallback Metrics (pkg/fallback):
//   - fieldgate_fallbacks_total{kind} (Counter): Offline fallbacks by kind
//     (offline_page, error_json)
//
// Sync Metrics (pkg/syncqueue):
//   - fieldgate_sync_replays_total{result} (Counter): Replay attempts by result
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(fieldgate_cache_hits_total[5m])) /
//   (sum(rate(fieldgate_cache_hits_total[5m])) + sum(rate(fieldgate_cache_misses_total[5m])))
//
//   # Offline Rate (share of requests resolved without the network)
//   sum(rate(fieldgate_requests_total{outcome!="network"}[5m])) /
//   sum(rate(fieldgate_requests_total[5m]))
//
//   # Sync Replay Failure Rate
//   rate(fieldgate_sync_replays_total{result="failure"}[5m])
//
//   # P95 Resolution Latency
//   histogram_quantile(0.95, rate(fieldgate_request_duration_seconds_bucket[5m]))
