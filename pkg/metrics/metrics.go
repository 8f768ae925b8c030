// Package metrics provides the Prometheus registry used by stade-map.
// Metrics are defined in their respective packages (source, ratelimit,
// pagination, acquisition, overlay) to keep packages independent.
//
// This package documents all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by stade-map.
const Namespace = "stademap"

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Source Metrics (pkg/source):
//   - stademap_source_requests_total{status} (Counter): Page requests by HTTP status or failure kind
//   - stademap_source_request_duration_seconds (Histogram): Page request duration
//   - stademap_source_errors_total{class} (Counter): Errors by class (network, client, server, rate_limit, decode)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - stademap_rate_limit_remaining (Gauge): Last X-RateLimit-Remaining value
//   - stademap_rate_limit_blocks_total (Counter): Requests blocked until the quota resets
//   - stademap_rate_limit_throttles_total (Counter): Requests delayed by throttling
//
// Pagination Metrics (pkg/pagination):
//   - stademap_pages_fetched_total (Counter): Pages received from the source
//   - stademap_records_accepted_total (Counter): Records with coordinates
//   - stademap_records_skipped_total (Counter): Records dropped for missing coordinates
//   - stademap_partition_failures_total (Counter): Partitions abandoned after an error
//
// Acquisition Metrics (pkg/acquisition):
//   - stademap_acquisition_runs_total{outcome} (Counter): Completed runs (live, fallback)
//   - stademap_acquisition_records (Gauge): Records rendered by the last run
//   - stademap_acquisition_partitions_visited_total (Counter): Partition steps executed
//
// Overlay Metrics (pkg/overlay):
//   - stademap_overlay_markers (Gauge): Live markers
//   - stademap_overlay_circles (Gauge): Live circles
//   - stademap_overlay_rebuilds_total{operation} (Counter): replace_all / rebuild_circles
//
// Example Prometheus Queries:
//
//   # Share of records dropped by validation
//   rate(stademap_records_skipped_total[1h]) /
//   (rate(stademap_records_accepted_total[1h]) + rate(stademap_records_skipped_total[1h]))
//
//   # Runs that ended on demo data
//   increase(stademap_acquisition_runs_total{outcome="fallback"}[1d])
//
//   # Overlay invariant (must always be 0)
//   stademap_overlay_markers - stademap_overlay_circles
