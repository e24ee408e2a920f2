// Package admin implements the authenticated JSON API behind the admin panel:
// sign-in, customers, products, sales, and debt payments. Every business
// mutation is captured to the audit trail under one correlation id; a failed
// capture is logged and never fails the business response.
package admin

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Recorder captures entity mutations to the audit trail. Satisfied by
// *audit.Recorder; tests substitute a stub.
type Recorder interface {
	Record(ctx context.Context, actor audit.Actor, correlationID string, mutations ...audit.Mutation) error
}

// actorFrom assembles the audit actor from the authenticated request context.
func actorFrom(c *gin.Context) audit.Actor {
	return audit.Actor{
		UserID:    c.GetString(middleware.UserIDKey),
		Username:  c.GetString(middleware.UsernameKey),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// recordMutations captures the request's mutations under its correlation id.
// Capture failures are logged, never surfaced: the business change is already
// committed and must not be reported as failed.
func recordMutations(c *gin.Context, rec Recorder, mutations ...audit.Mutation) {
	if rec == nil || len(mutations) == 0 {
		return
	}
	correlationID := middleware.CorrelationID(c)
	if err := rec.Record(c.Request.Context(), actorFrom(c), correlationID, mutations...); err != nil {
		slog.Error("failed to record audit trail",
			"correlation_id", correlationID,
			"path", c.FullPath(),
			"error", err,
		)
	}
}

// parsePaging reads zero-based page and size query parameters.
func parsePaging(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if page < 0 {
		page = 0
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}
