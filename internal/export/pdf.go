package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// pdfColWidths must sum to the usable width of a landscape A4 page (277mm).
var pdfColWidths = []float64{30, 30, 20, 26, 60, 28, 83}

// BuildAuditPDF renders audit entries into a landscape A4 PDF table.
func BuildAuditPDF(entries []*models.AuditLog) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Audit jurnali", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(217, 225, 242)
		for i, title := range auditHeaders {
			pdf.CellFormat(pdfColWidths[i], 7, title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
	writeHeader()

	pdf.SetFont("Helvetica", "", 8)
	for _, entry := range entries {
		// Repeat the header after an automatic page break.
		if pdf.GetY() > 185 {
			pdf.AddPage()
			writeHeader()
			pdf.SetFont("Helvetica", "", 8)
		}
		cells := []string{
			audit.FormatDateTime(entry.CreatedAt),
			strOrDash(entry.Username),
			entry.Action,
			entry.EntityType,
			strOrDash(entry.EntityID),
			strOrDash(entry.IPAddress),
			strOrDash(entry.CorrelationID),
		}
		for i, v := range cells {
			pdf.CellFormat(pdfColWidths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render audit pdf: %w", err)
	}
	return buf.Bytes(), nil
}
