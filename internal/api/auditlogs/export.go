package auditlogs

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/export"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/telemetry"
)

// ExportHandler streams the filtered audit trail as a generated file. Honours
// the same filters as the listing; row count is capped by the configured
// export limit.
// GET /v1/audit-logs/export?format=excel|pdf&(same filters)
func (h *Handlers) ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "excel")
		if format != "excel" && format != "pdf" {
			envelope.Error(c, http.StatusBadRequest, "format must be excel or pdf")
			return
		}

		filters := parseFilters(c)
		sortBy, sortDir := parseSort(c)

		entries, _, err := h.store.ListAuditLogs(c.Request.Context(), filters, sortBy, sortDir, h.exportRowLimit, 0)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Eksport uchun yozuvlarni yuklab bo'lmadi")
			return
		}

		stamp := time.Now().Format("2006-01-02")

		switch format {
		case "excel":
			f, err := export.BuildAuditWorkbook(entries)
			if err != nil {
				envelope.Error(c, http.StatusInternalServerError, "Excel faylini yaratib bo'lmadi")
				return
			}
			defer f.Close()

			var buf bytes.Buffer
			if err := f.Write(&buf); err != nil {
				envelope.Error(c, http.StatusInternalServerError, "Excel faylini yaratib bo'lmadi")
				return
			}

			telemetry.AuditExportsTotal.WithLabelValues("excel").Inc()
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-%s.xlsx"`, stamp))
			c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

		case "pdf":
			out, err := export.BuildAuditPDF(entries)
			if err != nil {
				envelope.Error(c, http.StatusInternalServerError, "PDF faylini yaratib bo'lmadi")
				return
			}

			telemetry.AuditExportsTotal.WithLabelValues("pdf").Inc()
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-%s.pdf"`, stamp))
			c.Data(http.StatusOK, "application/pdf", out)
		}
	}
}
