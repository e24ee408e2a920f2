package auditlogs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
)

// ListHandler serves the flat audit log listing.
// GET /v1/audit-logs?page&size&sort&entityType&action&userId&search&startDate&endDate
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)
		sortBy, sortDir := parseSort(c)
		filters := parseFilters(c)

		logs, total, err := h.store.ListAuditLogs(c.Request.Context(), filters, sortBy, sortDir, size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Audit yozuvlarini yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", envelope.NewPage(logs, page, size, int64(total)))
	}
}

// groupView is one row of the grouped listing: the derived group plus its
// curated operation detail, recomputed per request.
type groupView struct {
	*audit.Group
	Operation audit.OperationType     `json:"operation"`
	Details   []audit.GroupDetailItem `json:"details"`
}

// GroupedHandler serves the correlation-grouped audit log listing.
// GET /v1/audit-logs/grouped?(same filters)
func (h *Handlers) GroupedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)
		filters := parseFilters(c)

		logs, totalGroups, err := h.store.ListGrouped(c.Request.Context(), filters, size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Audit yozuvlarini yuklab bo'lmadi")
			return
		}

		groups := audit.BuildGroups(logs)
		views := make([]*groupView, 0, len(groups))
		for _, g := range groups {
			detail := audit.ExtractDetail(g)
			views = append(views, &groupView{
				Group:     g,
				Operation: detail.Operation,
				Details:   detail.Items,
			})
		}

		envelope.OK(c, "OK", envelope.NewPage(views, page, size, int64(totalGroups)))
	}
}
