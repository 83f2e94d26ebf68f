// internal/engine/tracking.go
package engine

import (
	"context"
	"fmt"

	stderrors "leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/models"
)

// RecordView notes that a bank user opened the lead. The first call for a
// (application, viewer) pair returns true; every repeat is a no-op returning
// false, so retries under at-least-once delivery are harmless.
func (e *Engine) RecordView(ctx context.Context, actor models.Actor, applicationID string) (bool, error) {
	if actor.Role != models.RoleBank && actor.Role != models.RoleAdmin {
		return false, stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot view leads", actor.Role))
	}
	if _, err := e.loadApplication(ctx, applicationID); err != nil {
		return false, err
	}

	first, err := e.views.RecordView(ctx, applicationID, actor.ID)
	if err != nil {
		return false, storageError(err)
	}
	return first, nil
}

// RejectLead records that a bank user is not interested in the lead. The
// application's status is untouched; the lead stays live for everyone else.
// Idempotent per (application, viewer) pair.
func (e *Engine) RejectLead(ctx context.Context, actor models.Actor, applicationID, reason string) (models.RejectionRecord, error) {
	if actor.Role != models.RoleBank && actor.Role != models.RoleAdmin {
		return models.RejectionRecord{}, stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot reject leads", actor.Role))
	}
	if _, err := e.loadApplication(ctx, applicationID); err != nil {
		return models.RejectionRecord{}, err
	}

	rec, err := e.rejections.Reject(ctx, applicationID, actor.ID, reason)
	if err != nil {
		return models.RejectionRecord{}, storageError(err)
	}
	return rec, nil
}
