package auditlogs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/telemetry"
)

// DetailHandler serves the expandable-row drill-down for one entry: device
// info, field-level diff, changed keys, and panel layout. Computed details are
// cached per entry id; a failed load caches nothing so the client may retry.
// GET /v1/audit-logs/:id/detail
func (h *Handlers) DetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if detail, ok := h.cache.Get(id); ok {
			telemetry.AuditDetailCacheHitsTotal.Inc()
			envelope.OK(c, "OK", detail)
			return
		}
		telemetry.AuditDetailCacheMissesTotal.Inc()

		entry, err := h.store.GetAuditLog(c.Request.Context(), id)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Audit yozuvini yuklab bo'lmadi")
			return
		}
		if entry == nil {
			envelope.Error(c, http.StatusNotFound, "Audit yozuvi topilmadi")
			return
		}

		detail := audit.BuildEntryDetail(entry)
		h.cache.Put(id, detail)

		envelope.OK(c, "OK", detail)
	}
}
