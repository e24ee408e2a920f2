// Package auditlogs implements the audit trail REST surface: flat and
// correlation-grouped listings, per-entry drill-down with field-level diffs,
// filter vocabularies, and file export.
package auditlogs

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the slice of the audit repository the handlers need.
type Store interface {
	ListAuditLogs(ctx context.Context, filters repositories.AuditFilters, sortBy, sortDir string, limit, offset int) ([]*models.AuditLog, int, error)
	ListGrouped(ctx context.Context, filters repositories.AuditFilters, limit, offset int) ([]*models.AuditLog, int, error)
	GetAuditLog(ctx context.Context, logID string) (*models.AuditLog, error)
	DistinctEntityTypes(ctx context.Context) ([]string, error)
	DistinctActions(ctx context.Context) ([]string, error)
}

// Handlers serves the audit trail endpoints.
type Handlers struct {
	store          Store
	cache          *audit.DetailCache
	exportRowLimit int
}

// NewHandlers creates the audit trail handler set. cache may not be nil.
func NewHandlers(store Store, cache *audit.DetailCache, exportRowLimit int) *Handlers {
	if exportRowLimit < 1 {
		exportRowLimit = 10000
	}
	return &Handlers{store: store, cache: cache, exportRowLimit: exportRowLimit}
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

// parseSort reads the "sort" query parameter in "field,dir" form.
func parseSort(c *gin.Context) (sortBy, sortDir string) {
	sort := c.DefaultQuery("sort", "createdAt,desc")
	parts := strings.SplitN(sort, ",", 2)
	sortBy = parts[0]
	sortDir = "desc"
	if len(parts) == 2 && strings.EqualFold(parts[1], "asc") {
		sortDir = "asc"
	}
	return sortBy, sortDir
}

// parseFilters reads the shared filter query parameters. Date bounds accept
// RFC 3339 or plain yyyy-mm-dd; an end date without a time component covers
// the whole day.
func parseFilters(c *gin.Context) repositories.AuditFilters {
	var f repositories.AuditFilters

	if v := c.Query("entityType"); v != "" {
		f.EntityType = &v
	}
	if v := c.Query("action"); v != "" {
		f.Action = &v
	}
	if v := c.Query("userId"); v != "" {
		f.UserID = &v
	}
	if v := c.Query("search"); v != "" {
		f.Search = &v
	}
	if t, ok := parseDate(c.Query("startDate"), false); ok {
		f.StartDate = &t
	}
	if t, ok := parseDate(c.Query("endDate"), true); ok {
		f.EndDate = &t
	}
	return f
}

func parseDate(s string, endOfDay bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
