package audit

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// DefaultDetailCacheSize bounds the expandable-row cache when the config leaves
// it unset.
const DefaultDetailCacheSize = 512

// EntryDetail is the fully computed drill-down view of one audit entry: the raw
// entry plus its field-level diff, changed-key highlight set, and panel layout.
type EntryDetail struct {
	Entry        *models.AuditLog `json:"entry"`
	DeviceInfo   DeviceInfo       `json:"deviceInfo"`
	FieldChanges []FieldChange    `json:"fieldChanges"`
	ChangedKeys  []string         `json:"changedKeys"`
	Panels       PanelVisibility  `json:"panels"`
}

// DeviceInfo carries the request metadata captured with the entry.
type DeviceInfo struct {
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// DetailCache is a bounded LRU of computed entry details keyed by entry id.
// Eviction is silent; a miss just means the detail is recomputed on the next
// expand.
type DetailCache struct {
	entries *lru.Cache[string, *EntryDetail]
}

// NewDetailCache builds a cache holding at most size details. A non-positive
// size falls back to DefaultDetailCacheSize.
func NewDetailCache(size int) (*DetailCache, error) {
	if size <= 0 {
		size = DefaultDetailCacheSize
	}
	entries, err := lru.New[string, *EntryDetail](size)
	if err != nil {
		return nil, err
	}
	return &DetailCache{entries: entries}, nil
}

// Get returns the cached detail for an entry id, if present.
func (c *DetailCache) Get(id string) (*EntryDetail, bool) {
	return c.entries.Get(id)
}

// Put stores a computed detail, evicting the least recently used one if full.
func (c *DetailCache) Put(id string, detail *EntryDetail) {
	c.entries.Add(id, detail)
}

// Has reports whether a detail is cached without affecting recency.
func (c *DetailCache) Has(id string) bool {
	return c.entries.Contains(id)
}

// Len returns the number of cached details.
func (c *DetailCache) Len() int {
	return c.entries.Len()
}

// BuildEntryDetail computes the drill-down view for one entry.
func BuildEntryDetail(entry *models.AuditLog) *EntryDetail {
	detail := &EntryDetail{
		Entry:        entry,
		FieldChanges: ComputeFieldChanges(entry.EntityType, entry.OldValue, entry.NewValue),
		ChangedKeys:  ChangedKeys(entry.OldValue, entry.NewValue),
		Panels:       PanelsFor(entry.Action),
	}
	if entry.IPAddress != nil {
		detail.DeviceInfo.IPAddress = *entry.IPAddress
	}
	if entry.UserAgent != nil {
		detail.DeviceInfo.UserAgent = *entry.UserAgent
	}
	return detail
}
