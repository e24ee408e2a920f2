package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the id linking all audit entries of one
	// business operation.
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the gin.Context key under which the correlation ID is stored.
	CorrelationIDKey = "correlation_id"
)

// CorrelationMiddleware assigns every mutating request a correlation id. The
// recorder stamps it on each audit entry it writes, which is what lets the
// viewer group the entries of one operation back together. Unlike the request
// id, the correlation id is minted per operation, so a client retrying with
// the same header groups its retries into one operation.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// CorrelationID returns the request's correlation id, or empty when the
// middleware did not run.
func CorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}
