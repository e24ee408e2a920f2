// Package audit implements the audit trail: capture of entity mutations with
// correlation ids, correlation grouping, operation classification, curated
// detail extraction, field-level diffing, and shipping of entries to external
// destinations. Audit entries are kept separate from application logs because
// they are business records with their own retention, not debug output.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// ShipEntry is the wire form of one audit entry sent to external destinations.
type ShipEntry struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	EntityType    string          `json:"entityType"`
	EntityID      string          `json:"entityId,omitempty"`
	Action        string          `json:"action"`
	Username      string          `json:"username,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
	IPAddress     string          `json:"ipAddress,omitempty"`
	OldValue      json.RawMessage `json:"oldValue,omitempty"`
	NewValue      json.RawMessage `json:"newValue,omitempty"`
}

// NewShipEntry converts a stored audit entry into its wire form.
func NewShipEntry(entry *models.AuditLog) *ShipEntry {
	se := &ShipEntry{
		ID:         entry.ID,
		Timestamp:  entry.CreatedAt,
		EntityType: entry.EntityType,
		Action:     entry.Action,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
	}
	if entry.EntityID != nil {
		se.EntityID = *entry.EntityID
	}
	if entry.Username != nil {
		se.Username = *entry.Username
	}
	if entry.CorrelationID != nil {
		se.CorrelationID = *entry.CorrelationID
	}
	if entry.IPAddress != nil {
		se.IPAddress = *entry.IPAddress
	}
	return se
}

// Shipper sends audit entries to one destination.
type Shipper interface {
	Ship(ctx context.Context, entry *ShipEntry) error
	Close() error
}

// ShipperConfig selects and configures one destination.
type ShipperConfig struct {
	Enabled bool           `mapstructure:"enabled" json:"enabled"`
	Type    string         `mapstructure:"type" json:"type"`
	Webhook *WebhookConfig `mapstructure:"webhook" json:"webhook,omitempty"`
	File    *FileConfig    `mapstructure:"file" json:"file,omitempty"`
}

// WebhookConfig configures an HTTP destination. BatchSize 0 disables batching.
type WebhookConfig struct {
	URL           string            `mapstructure:"url" json:"url"`
	Headers       map[string]string `mapstructure:"headers" json:"headers,omitempty"`
	Timeout       time.Duration     `mapstructure:"timeout" json:"timeout"`
	BatchSize     int               `mapstructure:"batch_size" json:"batchSize"`
	FlushInterval time.Duration     `mapstructure:"flush_interval" json:"flushInterval"`
}

// FileConfig configures an append-only JSONL destination with size rotation.
type FileConfig struct {
	Path       string `mapstructure:"path" json:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"maxSizeMb"`
	MaxBackups int    `mapstructure:"max_backups" json:"maxBackups"`
}

// MultiShipper fans one entry out to every enabled destination. One failing
// destination never blocks the others.
type MultiShipper struct {
	shippers []Shipper
	mu       sync.RWMutex
}

// NewMultiShipper builds the fan-out from configuration, skipping disabled
// entries.
func NewMultiShipper(configs []ShipperConfig) (*MultiShipper, error) {
	ms := &MultiShipper{}

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		var (
			shipper Shipper
			err     error
		)
		switch cfg.Type {
		case "webhook":
			if cfg.Webhook == nil {
				return nil, fmt.Errorf("webhook config is required for webhook shipper")
			}
			shipper, err = NewWebhookShipper(cfg.Webhook)
		case "file":
			if cfg.File == nil {
				return nil, fmt.Errorf("file config is required for file shipper")
			}
			shipper, err = NewFileShipper(cfg.File)
		default:
			return nil, fmt.Errorf("unknown shipper type: %s", cfg.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s shipper: %w", cfg.Type, err)
		}
		ms.shippers = append(ms.shippers, shipper)
	}

	return ms, nil
}

// Ship sends an entry to all destinations, returning the last error seen.
func (ms *MultiShipper) Ship(ctx context.Context, entry *ShipEntry) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var lastErr error
	for _, shipper := range ms.shippers {
		if err := shipper.Ship(ctx, entry); err != nil {
			lastErr = err
			slog.Error("audit shipper failed", "error", err)
		}
	}
	return lastErr
}

// Close closes all destinations.
func (ms *MultiShipper) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var lastErr error
	for _, shipper := range ms.shippers {
		if err := shipper.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// WebhookShipper posts entries to an HTTP endpoint, optionally batched.
type WebhookShipper struct {
	cfg       *WebhookConfig
	client    *http.Client
	batchCh   chan *ShipEntry
	batch     []*ShipEntry
	batchMu   sync.Mutex
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewWebhookShipper builds the shipper and starts the batch flusher when
// batching is enabled.
func NewWebhookShipper(cfg *WebhookConfig) (*WebhookShipper, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ws := &WebhookShipper{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		batchCh: make(chan *ShipEntry, 1000),
		closeCh: make(chan struct{}),
	}

	if cfg.BatchSize > 0 {
		go ws.processBatches()
	}

	return ws, nil
}

func (ws *WebhookShipper) processBatches() {
	flushInterval := ws.cfg.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-ws.batchCh:
			ws.batchMu.Lock()
			ws.batch = append(ws.batch, entry)
			if len(ws.batch) >= ws.cfg.BatchSize {
				ws.flushBatch()
			}
			ws.batchMu.Unlock()
		case <-ticker.C:
			ws.batchMu.Lock()
			if len(ws.batch) > 0 {
				ws.flushBatch()
			}
			ws.batchMu.Unlock()
		case <-ws.closeCh:
			ws.batchMu.Lock()
			if len(ws.batch) > 0 {
				ws.flushBatch()
			}
			ws.batchMu.Unlock()
			return
		}
	}
}

// flushBatch sends the queued entries. Caller holds batchMu.
func (ws *WebhookShipper) flushBatch() {
	if len(ws.batch) == 0 {
		return
	}

	data, err := json.Marshal(ws.batch)
	if err != nil {
		slog.Error("failed to marshal audit batch", "error", err)
		ws.batch = ws.batch[:0]
		return
	}

	timeout := ws.cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := ws.sendRequest(ctx, data); err != nil {
		slog.Error("failed to send audit batch", "error", err, "size", len(ws.batch))
	}

	ws.batch = ws.batch[:0]
}

// Ship queues the entry when batching is on, falling back to a direct send if
// the queue is full.
func (ws *WebhookShipper) Ship(ctx context.Context, entry *ShipEntry) error {
	if ws.cfg.BatchSize > 0 {
		select {
		case ws.batchCh <- entry:
			return nil
		default:
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	return ws.sendRequest(ctx, data)
}

func (ws *WebhookShipper) sendRequest(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range ws.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close stops the batch flusher after a final flush.
func (ws *WebhookShipper) Close() error {
	ws.closeOnce.Do(func() {
		close(ws.closeCh)
	})
	return nil
}

// FileShipper appends entries as JSON lines, rotating by size.
type FileShipper struct {
	cfg  *FileConfig
	file *os.File
	mu   sync.Mutex
}

// NewFileShipper opens (or creates) the destination file.
func NewFileShipper(cfg *FileConfig) (*FileShipper, error) {
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &FileShipper{cfg: cfg, file: file}, nil
}

// Ship appends one entry, rotating first when the file exceeds its size cap.
func (fs *FileShipper) Ship(ctx context.Context, entry *ShipEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.cfg.MaxSizeMB > 0 {
		info, err := fs.file.Stat()
		if err == nil && info.Size() > int64(fs.cfg.MaxSizeMB)*1024*1024 {
			if err := fs.rotate(); err != nil {
				slog.Error("failed to rotate audit log", "error", err)
			}
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (fs *FileShipper) rotate() error {
	if err := fs.file.Close(); err != nil {
		return err
	}

	for i := fs.cfg.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", fs.cfg.Path, i)
		newPath := fmt.Sprintf("%s.%d", fs.cfg.Path, i+1)
		_ = os.Rename(oldPath, newPath)
	}
	_ = os.Rename(fs.cfg.Path, fs.cfg.Path+".1")
	if fs.cfg.MaxBackups > 0 {
		_ = os.Remove(fmt.Sprintf("%s.%d", fs.cfg.Path, fs.cfg.MaxBackups+1))
	}

	file, err := os.OpenFile(fs.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	fs.file = file
	return nil
}

// Close closes the file.
func (fs *FileShipper) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.file.Close()
}
