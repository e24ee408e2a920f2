// Package export renders audit trail pages into downloadable report files.
// Excel is the format the accountants actually open; PDF exists for printing
// and for sharing snapshots with auditors who must not edit them.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

const auditSheetName = "Audit jurnali"

// auditHeaders are the column titles, in column order.
var auditHeaders = []string{
	"Sana",
	"Foydalanuvchi",
	"Amal",
	"Obyekt turi",
	"Obyekt ID",
	"IP manzil",
	"Operatsiya ID",
}

// BuildAuditWorkbook renders audit entries into an xlsx workbook with one row
// per entry, newest first (the order the repository returns).
func BuildAuditWorkbook(entries []*models.AuditLog) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", auditSheetName)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#8EA9DB", Style: 2},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, title := range auditHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(auditSheetName, cell, title); err != nil {
			return nil, err
		}
	}
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(auditHeaders), 1)
	if err := f.SetCellStyle(auditSheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, err
	}

	for i, entry := range entries {
		row := i + 2
		values := []any{
			audit.FormatDateTime(entry.CreatedAt),
			strOrDash(entry.Username),
			entry.Action,
			entry.EntityType,
			strOrDash(entry.EntityID),
			strOrDash(entry.IPAddress),
			strOrDash(entry.CorrelationID),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(auditSheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	// Widths picked to fit the header titles plus typical values.
	widths := []float64{18, 16, 10, 14, 38, 16, 38}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(auditSheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
