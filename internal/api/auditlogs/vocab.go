package auditlogs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
)

// EntityTypesHandler serves the distinct entity types present in the trail,
// used to populate the filter dropdown.
// GET /v1/audit-logs/entity-types
func (h *Handlers) EntityTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := h.store.DistinctEntityTypes(c.Request.Context())
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Obyekt turlarini yuklab bo'lmadi")
			return
		}
		if types == nil {
			types = []string{}
		}
		envelope.OK(c, "OK", types)
	}
}

// ActionsHandler serves the distinct actions present in the trail.
// GET /v1/audit-logs/actions
func (h *Handlers) ActionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actions, err := h.store.DistinctActions(c.Request.Context())
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Amallarni yuklab bo'lmadi")
			return
		}
		if actions == nil {
			actions = []string{}
		}
		envelope.OK(c, "OK", actions)
	}
}
