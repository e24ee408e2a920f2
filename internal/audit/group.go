// group.go builds the correlation-grouped view over flat audit entries. Groups are
// derived, never persisted; they are recomputed from the page of rows the repository
// returns.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// Group is a correlation-grouped view over the entries sharing one group key.
// EntityTypes is exactly the set of distinct entity types across Logs, in order
// of first appearance.
type Group struct {
	GroupKey      string             `json:"groupKey"`
	Timestamp     time.Time          `json:"timestamp"`
	Username      string             `json:"username"`
	PrimaryAction string             `json:"primaryAction"`
	Summary       string             `json:"summary"`
	LogCount      int                `json:"logCount"`
	Logs          []*models.AuditLog `json:"logs"`
	EntityTypes   []string           `json:"entityTypes"`
}

// BuildGroups folds a page of entries (ordered newest-first by the repository)
// into groups, preserving the order in which each group key first appears.
func BuildGroups(logs []*models.AuditLog) []*Group {
	byKey := make(map[string]*Group)
	var groups []*Group

	for _, entry := range logs {
		key := entry.GroupKey()
		g, ok := byKey[key]
		if !ok {
			g = &Group{GroupKey: key, Timestamp: entry.CreatedAt}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Logs = append(g.Logs, entry)
		if entry.CreatedAt.Before(g.Timestamp) {
			g.Timestamp = entry.CreatedAt
		}
		if g.Username == "" && entry.Username != nil {
			g.Username = *entry.Username
		}
	}

	for _, g := range groups {
		g.LogCount = len(g.Logs)
		g.EntityTypes = distinctEntityTypes(g.Logs)
		g.PrimaryAction, g.Summary = summarize(g)
	}
	return groups
}

// distinctEntityTypes returns the distinct entity types in order of first appearance.
func distinctEntityTypes(logs []*models.AuditLog) []string {
	seen := make(map[string]bool, len(logs))
	types := make([]string, 0, len(logs))
	for _, entry := range logs {
		if !seen[entry.EntityType] {
			seen[entry.EntityType] = true
			types = append(types, entry.EntityType)
		}
	}
	return types
}

// operationLabels maps classified operations to their human summary label.
var operationLabels = map[OperationType]string{
	OpDebtPayment: "Qarz to'lovi",
	OpSaleCreate:  "Sotuv",
}

// summarize derives the group's human-readable action label and summary line.
func summarize(g *Group) (primaryAction, summary string) {
	op := Classify(g)
	if label, ok := operationLabels[op]; ok {
		primaryAction = label
	} else if len(g.Logs) > 0 {
		primaryAction = fmt.Sprintf("%s %s", g.Logs[0].Action, g.Logs[0].EntityType)
	}
	summary = fmt.Sprintf("%d ta yozuv: %s", len(g.Logs), strings.Join(g.EntityTypes, ", "))
	return primaryAction, summary
}

// findByEntityType returns the first entry of the given type in the group, or nil.
func (g *Group) findByEntityType(entityType string) *models.AuditLog {
	for _, entry := range g.Logs {
		if entry.EntityType == entityType {
			return entry
		}
	}
	return nil
}

// countByEntityType returns how many entries of the given type the group holds.
func (g *Group) countByEntityType(entityType string) int {
	n := 0
	for _, entry := range g.Logs {
		if entry.EntityType == entityType {
			n++
		}
	}
	return n
}
