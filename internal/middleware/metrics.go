// metrics.go records per-request Prometheus metrics.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/telemetry"
)

// MetricsMiddleware records two Prometheus metrics for every request:
//
//   - http_requests_total{method, path, status}    — CounterVec
//   - http_request_duration_seconds{method, path}  — HistogramVec
//
// The path label is the matched Gin route template (e.g. /api/audit-logs/:id),
// not the raw URL, so label cardinality stays bounded. Requests that match no
// registered route use "<no-route>".
//
// Register this after gin.Recovery() and RequestIDMiddleware so the status set
// by error handlers is captured.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
