// Package telemetry provides application-level observability for the ERP backend.
//
// All metrics are registered against the default Prometheus registry and are
// served by the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<JERP_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not part of the Gin router, so the admin
// API surface and the scrape surface stay separate.
//
// HTTP metrics use c.FullPath() (route template such as /api/audit-logs/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Audit trail metrics.
//
// AuditEntriesRecordedTotal counts every persisted audit entry, by entity type
// and action. A flat counter during active business hours is a capture-pipeline
// alert signal.
//
// AuditDetailCacheHitsTotal / AuditDetailCacheMissesTotal track the
// expandable-row detail cache. Hit ratio:
//
//	rate(audit_detail_cache_hits_total[5m]) / (rate(audit_detail_cache_hits_total[5m]) + rate(audit_detail_cache_misses_total[5m]))
//
// AuditExportsTotal counts generated export files by format ("excel", "pdf").
var (
	AuditEntriesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_recorded_total",
			Help: "Total number of audit entries persisted, by entity type and action.",
		},
		[]string{"entity_type", "action"},
	)

	AuditDetailCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_detail_cache_hits_total",
			Help: "Total number of audit detail lookups served from the cache.",
		},
	)

	AuditDetailCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_detail_cache_misses_total",
			Help: "Total number of audit detail lookups that required recomputation.",
		},
	)

	AuditExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_exports_total",
			Help: "Total number of audit trail export files generated, by format.",
		},
		[]string{"format"},
	)
)

// WSClientsConnected is a Gauge tracking the number of WebSocket clients
// currently subscribed to audit trail notifications.
var WSClientsConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "ws_clients_connected",
		Help: "Current number of connected WebSocket notification clients.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections
// currently held by the sql.DB pool. It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of
// sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates DBOpenConnections.
// The goroutine exits when the database becomes unreachable, which happens
// automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after the database connection succeeds in main.go.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
