// Package models - audit_log.go defines the AuditLog model: one captured mutation of a
// business entity, with before/after JSON snapshots and the correlation ID that ties the
// entries of a single logical operation together.
package models

import (
	"encoding/json"
	"time"
)

// Audit actions. Entries are insert-only; the backend never updates or deletes them.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// AuditLog represents a single audit log entry.
type AuditLog struct {
	ID            string          `db:"id" json:"id"`
	EntityType    string          `db:"entity_type" json:"entityType"` // "Sale", "Debt", "Customer", ...
	EntityID      *string         `db:"entity_id" json:"entityId"`
	Action        string          `db:"action" json:"action"`
	OldValue      json.RawMessage `db:"old_value" json:"oldValue,omitempty"`
	NewValue      json.RawMessage `db:"new_value" json:"newValue,omitempty"`
	UserID        *string         `db:"user_id" json:"userId"`
	Username      *string         `db:"username" json:"username"`
	IPAddress     *string         `db:"ip_address" json:"ipAddress"`
	UserAgent     *string         `db:"user_agent" json:"userAgent"`
	CorrelationID *string         `db:"correlation_id" json:"correlationId"` // nil for standalone mutations
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// GroupKey returns the key this entry groups under in the correlation-grouped
// view. Entries without a correlation ID form synthetic single-entry groups.
func (a *AuditLog) GroupKey() string {
	if a.CorrelationID != nil && *a.CorrelationID != "" {
		return *a.CorrelationID
	}
	return "log-" + a.ID
}
