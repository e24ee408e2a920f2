// audit_repository.go implements AuditRepository, providing database queries for
// writing and retrieving audit trail entries, including the correlation-grouped
// page the grouped viewer renders.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// AuditRepository handles audit trail database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying audit entries
type AuditFilters struct {
	EntityType *string
	EntityID   *string
	Action     *string
	UserID     *string
	Search     *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// auditSortColumns whitelists sortable columns so callers can never inject
// arbitrary ORDER BY fragments.
var auditSortColumns = map[string]string{
	"createdAt":  "created_at",
	"entityType": "entity_type",
	"action":     "action",
	"username":   "username",
}

const auditSelectColumns = `id, entity_type, entity_id, action, old_value, new_value,
		user_id, username, ip_address, user_agent, correlation_id, created_at`

// CreateAuditLog persists one audit entry. ID and CreatedAt are generated when
// the caller leaves them empty.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, old_value, new_value,
			user_id, username, ip_address, user_agent, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		[]byte(entry.OldValue),
		[]byte(entry.NewValue),
		entry.UserID,
		entry.Username,
		entry.IPAddress,
		entry.UserAgent,
		entry.CorrelationID,
		entry.CreatedAt,
	)

	return err
}

// buildAuditWhere renders the filter set into a WHERE fragment with positional
// params, returning the fragment, the args, and the next param index.
func buildAuditWhere(filters AuditFilters) (string, []interface{}, int) {
	var sb strings.Builder
	sb.WriteString(` WHERE 1=1`)

	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.EntityType != nil {
		fmt.Fprintf(&sb, ` AND entity_type = $%d`, paramIndex)
		args = append(args, *filters.EntityType)
		paramIndex++
	}

	if filters.EntityID != nil {
		fmt.Fprintf(&sb, ` AND entity_id = $%d`, paramIndex)
		args = append(args, *filters.EntityID)
		paramIndex++
	}

	if filters.Action != nil {
		fmt.Fprintf(&sb, ` AND action = $%d`, paramIndex)
		args = append(args, *filters.Action)
		paramIndex++
	}

	if filters.UserID != nil {
		fmt.Fprintf(&sb, ` AND user_id = $%d`, paramIndex)
		args = append(args, *filters.UserID)
		paramIndex++
	}

	if filters.Search != nil {
		fmt.Fprintf(&sb, ` AND (username ILIKE $%d OR entity_type ILIKE $%d OR entity_id ILIKE $%d)`,
			paramIndex, paramIndex, paramIndex)
		args = append(args, "%"+*filters.Search+"%")
		paramIndex++
	}

	if filters.StartDate != nil {
		fmt.Fprintf(&sb, ` AND created_at >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		fmt.Fprintf(&sb, ` AND created_at <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	return sb.String(), args, paramIndex
}

// ListAuditLogs retrieves a flat page of audit entries with optional filters.
// sortBy must match a whitelisted column name; anything else falls back to
// createdAt descending.
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filters AuditFilters, sortBy, sortDir string, limit, offset int) ([]*models.AuditLog, int, error) {
	where, args, paramIndex := buildAuditWhere(filters)

	countQuery := `SELECT COUNT(*) FROM audit_logs` + where

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := auditSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(sortDir, "asc") {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM audit_logs%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		auditSelectColumns, where, column, direction, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, entry)
	}

	return logs, total, rows.Err()
}

// ListGrouped retrieves one page of correlation groups: it pages over distinct
// group keys ordered by each group's most recent entry, then loads every member
// entry of the selected keys. Entries without a correlation id form singleton
// groups keyed by their own id.
func (r *AuditRepository) ListGrouped(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	where, args, paramIndex := buildAuditWhere(filters)

	countQuery := `SELECT COUNT(DISTINCT COALESCE(correlation_id, 'log-' || id)) FROM audit_logs` + where

	var totalGroups int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalGroups); err != nil {
		return nil, 0, err
	}

	keyQuery := fmt.Sprintf(`
		SELECT COALESCE(correlation_id, 'log-' || id) AS group_key, MAX(created_at) AS last_at
		FROM audit_logs%s
		GROUP BY group_key
		ORDER BY last_at DESC
		LIMIT $%d OFFSET $%d`, where, paramIndex, paramIndex+1)
	keyArgs := append(append([]interface{}{}, args...), limit, offset)

	keyRows, err := r.db.QueryContext(ctx, keyQuery, keyArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer keyRows.Close()

	keys := make([]string, 0, limit)
	for keyRows.Next() {
		var key string
		var lastAt time.Time
		if err := keyRows.Scan(&key, &lastAt); err != nil {
			return nil, 0, err
		}
		keys = append(keys, key)
	}
	if err := keyRows.Err(); err != nil {
		return nil, 0, err
	}
	if len(keys) == 0 {
		return []*models.AuditLog{}, totalGroups, nil
	}

	memberQuery := fmt.Sprintf(`
		SELECT %s FROM audit_logs%s
		AND COALESCE(correlation_id, 'log-' || id) = ANY($%d)
		ORDER BY created_at DESC, id DESC`, auditSelectColumns, where, paramIndex)
	memberArgs := append(append([]interface{}{}, args...), pq.Array(keys))

	rows, err := r.db.QueryContext(ctx, memberQuery, memberArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, entry)
	}

	return logs, totalGroups, rows.Err()
}

// ListByCorrelationID retrieves every entry of one group, oldest first.
func (r *AuditRepository) ListByCorrelationID(ctx context.Context, correlationID string) ([]*models.AuditLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE COALESCE(correlation_id, 'log-' || id) = $1
		ORDER BY created_at ASC, id ASC`, auditSelectColumns)

	rows, err := r.db.QueryContext(ctx, query, correlationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// GetAuditLog retrieves a single audit entry by ID, returning nil when absent.
func (r *AuditRepository) GetAuditLog(ctx context.Context, logID string) (*models.AuditLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_logs WHERE id = $1`, auditSelectColumns)

	row := r.db.QueryRowContext(ctx, query, logID)
	entry, err := scanAuditLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DistinctEntityTypes lists the entity types that appear in the trail, sorted.
func (r *AuditRepository) DistinctEntityTypes(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT entity_type FROM audit_logs ORDER BY entity_type`)
}

// DistinctActions lists the actions that appear in the trail, sorted.
func (r *AuditRepository) DistinctActions(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT action FROM audit_logs ORDER BY action`)
}

func (r *AuditRepository) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	entry := &models.AuditLog{}
	var oldValue, newValue []byte

	err := row.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Action,
		&oldValue,
		&newValue,
		&entry.UserID,
		&entry.Username,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.CorrelationID,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.OldValue = oldValue
	entry.NewValue = newValue
	return entry, nil
}
