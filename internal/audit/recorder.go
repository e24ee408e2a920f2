// recorder.go captures entity mutations as audit entries. Writes to the store
// are synchronous so a committed business transaction always has its trail;
// shipping and viewer notification happen in the background.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/safego"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/telemetry"
)

// Actor identifies who performed a mutation and from where.
type Actor struct {
	UserID    string
	Username  string
	IPAddress string
	UserAgent string
}

// Mutation is one entity change to record. Old and New are the entity
// snapshots before and after; either may be nil for CREATE and DELETE.
type Mutation struct {
	EntityType string
	EntityID   string
	Action     string
	Old        any
	New        any
}

// Writer persists audit entries.
type Writer interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Notifier tells connected viewers that new entries exist.
type Notifier interface {
	Broadcast(event string, payload any)
}

// Recorder turns business mutations into persisted, shipped audit entries.
// Shipper and Notifier are optional.
type Recorder struct {
	writer   Writer
	shipper  Shipper
	notifier Notifier
}

// NewRecorder builds a recorder. Pass nil for shipper or notifier to disable
// that side effect.
func NewRecorder(writer Writer, shipper Shipper, notifier Notifier) *Recorder {
	return &Recorder{writer: writer, shipper: shipper, notifier: notifier}
}

// NewCorrelationID returns a fresh id linking the entries of one operation.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Record persists one entry per mutation, all sharing correlationID. The first
// persistence failure aborts and is returned; entries already written stay.
// Shipping and notification are fire-and-forget.
func (r *Recorder) Record(ctx context.Context, actor Actor, correlationID string, mutations ...Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	if correlationID == "" {
		correlationID = NewCorrelationID()
	}

	entries := make([]*models.AuditLog, 0, len(mutations))
	for _, m := range mutations {
		entry, err := r.buildEntry(actor, correlationID, m)
		if err != nil {
			return fmt.Errorf("failed to build audit entry for %s: %w", m.EntityType, err)
		}
		if err := r.writer.CreateAuditLog(ctx, entry); err != nil {
			return fmt.Errorf("failed to record audit entry for %s: %w", m.EntityType, err)
		}
		telemetry.AuditEntriesRecordedTotal.WithLabelValues(m.EntityType, m.Action).Inc()
		entries = append(entries, entry)
	}

	safego.Go(func() {
		r.dispatch(entries)
	})
	return nil
}

func (r *Recorder) buildEntry(actor Actor, correlationID string, m Mutation) (*models.AuditLog, error) {
	oldRaw, err := marshalSnapshot(m.Old)
	if err != nil {
		return nil, err
	}
	newRaw, err := marshalSnapshot(m.New)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLog{
		ID:            uuid.NewString(),
		EntityType:    m.EntityType,
		Action:        m.Action,
		OldValue:      oldRaw,
		NewValue:      newRaw,
		CorrelationID: &correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	if m.EntityID != "" {
		entry.EntityID = &m.EntityID
	}
	if actor.UserID != "" {
		entry.UserID = &actor.UserID
	}
	if actor.Username != "" {
		entry.Username = &actor.Username
	}
	if actor.IPAddress != "" {
		entry.IPAddress = &actor.IPAddress
	}
	if actor.UserAgent != "" {
		entry.UserAgent = &actor.UserAgent
	}
	return entry, nil
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// dispatch ships each entry and notifies viewers once per batch.
func (r *Recorder) dispatch(entries []*models.AuditLog) {
	if r.shipper != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		for _, entry := range entries {
			if err := r.shipper.Ship(ctx, NewShipEntry(entry)); err != nil {
				slog.Error("failed to ship audit entry", "entry_id", entry.ID, "error", err)
			}
		}
	}
	if r.notifier != nil && len(entries) > 0 {
		correlationID := ""
		if entries[0].CorrelationID != nil {
			correlationID = *entries[0].CorrelationID
		}
		r.notifier.Broadcast("audit.recorded", map[string]any{
			"correlationId": correlationID,
			"count":         len(entries),
		})
	}
}
