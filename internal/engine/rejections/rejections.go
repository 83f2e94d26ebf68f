// Package rejections records per-viewer "not interested" marks on live
// applications. A rejection hides the lead from that user's feed but never
// affects the application's lifecycle, and it does not bar the same user
// from submitting an offer later.
package rejections

import (
	"context"
	"fmt"
	"time"

	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

type Registry struct {
	store storage.RejectionStore
}

func NewRegistry(store storage.RejectionStore) *Registry {
	return &Registry{store: store}
}

// Reject records that the viewer dismissed the application. The operation is
// idempotent per (application, viewer) pair; a repeat refreshes the stated
// reason but keeps the original record time.
func (r *Registry) Reject(ctx context.Context, applicationID, viewerID, reason string) (models.RejectionRecord, error) {
	rec, err := r.store.UpsertRejection(ctx, models.RejectionRecord{
		ApplicationID: applicationID,
		ViewerID:      viewerID,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return models.RejectionRecord{}, fmt.Errorf("record rejection: %w", err)
	}
	return rec, nil
}

// List returns all rejection records for the application.
func (r *Registry) List(ctx context.Context, applicationID string) ([]models.RejectionRecord, error) {
	records, err := r.store.ListRejections(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	return records, nil
}

// IsRejectedBy reports whether the viewer has dismissed the application.
func (r *Registry) IsRejectedBy(ctx context.Context, applicationID, viewerID string) (bool, error) {
	records, err := r.store.ListRejections(ctx, applicationID)
	if err != nil {
		return false, fmt.Errorf("list rejections: %w", err)
	}
	for _, rec := range records {
		if rec.ViewerID == viewerID {
			return true, nil
		}
	}
	return false, nil
}
