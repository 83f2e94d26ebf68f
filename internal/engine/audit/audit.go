// Package audit owns the append-only, per-application status history. The
// trail is the canonical source for status-change views and for
// processing-time analytics; entries are never mutated or deleted.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

// IndexName is the Elasticsearch index the trail is mirrored into for
// analytics search. Mirroring is best-effort; the store is the source of
// truth.
const IndexName = "lead-audit-trail"

type Log struct {
	store  storage.AuditStore
	es     *elasticsearch.Client
	logger logger.Logger
}

// NewLog creates an audit log over the given store. es may be nil, in which
// case no analytics mirroring happens.
func NewLog(store storage.AuditStore, es *elasticsearch.Client, log logger.Logger) *Log {
	return &Log{
		store:  store,
		es:     es,
		logger: log.WithFields(map[string]interface{}{"component": "audit-log"}),
	}
}

// Append writes one entry. Entries are write-once; there is no update path.
func (l *Log) Append(ctx context.Context, entry models.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := l.store.AppendAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	l.index(ctx, entry)
	return nil
}

// Mirror forwards an entry the store layer already persisted (as part of a
// transactional status write) to the analytics index. Best-effort, like the
// mirroring in Append.
func (l *Log) Mirror(ctx context.Context, entry models.AuditEntry) {
	l.index(ctx, entry)
}

// Read returns the application's history ordered by timestamp ascending.
// Re-issuing the call restarts the sequence from the store.
func (l *Log) Read(ctx context.Context, applicationID string) ([]models.AuditEntry, error) {
	entries, err := l.store.ListAuditEntries(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	return entries, nil
}

// index mirrors the entry into Elasticsearch. Failures are logged and
// swallowed so analytics indexing can never fail a lifecycle operation.
func (l *Log) index(ctx context.Context, entry models.AuditEntry) {
	if l.es == nil {
		return
	}

	doc, err := json.Marshal(map[string]interface{}{
		"applicationId": entry.ApplicationID,
		"fromStatus":    string(entry.FromStatus),
		"toStatus":      string(entry.ToStatus),
		"actorId":       entry.Actor.ID,
		"actorRole":     string(entry.Actor.Role),
		"reason":        entry.Reason,
		"timestamp":     entry.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		l.logger.Warn("audit index marshal failed", map[string]interface{}{"error": err})
		return
	}

	res, err := l.es.Index(IndexName, bytes.NewReader(doc),
		l.es.Index.WithContext(ctx))
	if err != nil {
		l.logger.Warn("audit index write failed", map[string]interface{}{
			"applicationId": entry.ApplicationID,
			"error":         err,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		l.logger.Warn("audit index write rejected", map[string]interface{}{
			"applicationId": entry.ApplicationID,
			"status":        res.Status(),
		})
	}
}
