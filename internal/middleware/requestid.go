package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the canonical HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID string is stored so
	// that handlers and other middleware can retrieve it without reading the response header.
	RequestIDKey = "request_id"
)

// RequestIDMiddleware ensures every request carries a unique identifier
// propagated as an X-Request-ID header. An inbound header value (set by a load
// balancer or the admin front-end) is reused unchanged; otherwise a new UUID
// is generated. The value is stored under RequestIDKey and echoed back in the
// response so clients can correlate their requests with server-side log lines.
//
// Register this middleware early so all downstream logging includes the ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
