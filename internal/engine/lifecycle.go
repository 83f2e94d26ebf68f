// internal/engine/lifecycle.go
package engine

import (
	"context"
	"errors"
	"fmt"

	stderrors "leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

// transitionTable is the only authority on status changes. A transition
// absent from the table is rejected regardless of who asks for it.
var transitionTable = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusDraft:         {models.StatusLiveAuction, models.StatusIgnored},
	models.StatusLiveAuction:   {models.StatusApprovedLeads, models.StatusExpired, models.StatusIgnored},
	models.StatusApprovedLeads: {models.StatusCompleted, models.StatusIgnored},
}

func transitionAllowed(from, to models.ApplicationStatus) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SubmitApplicationInput is the payload for creating a lead. The financial
// profile is opaque to the engine; structural validation happens at the
// transport boundary.
type SubmitApplicationInput struct {
	FinancialProfile map[string]interface{}
	PriorityLevel    models.PriorityLevel
	Document         *models.DocumentRef
}

// SubmitApplication creates a financing application and opens its auction.
// The application is created in draft and immediately moved to live_auction
// with the deadline computed from the submission time; both states are
// visible in the audit trail.
func (e *Engine) SubmitApplication(ctx context.Context, actor models.Actor, input SubmitApplicationInput) (models.Application, error) {
	if actor.Role != models.RoleBusiness && actor.Role != models.RoleAdmin {
		return models.Application{}, stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot submit applications", actor.Role))
	}
	if len(input.FinancialProfile) == 0 {
		return models.Application{}, stderrors.NewValidationFailedError("financial profile is required")
	}
	priority := input.PriorityLevel
	if priority == "" {
		priority = models.PriorityStandard
	}

	submittedAt := e.now()
	app := models.Application{
		OwnerBusinessID:  actor.ID,
		Status:           models.StatusDraft,
		FinancialProfile: input.FinancialProfile,
		PriorityLevel:    priority,
		SubmittedAt:      submittedAt,
		Document:         input.Document,
	}

	created, err := e.apps.CreateApplication(ctx, app)
	if err != nil {
		return models.Application{}, storageError(err)
	}

	release := e.locks.acquire(created.ID)
	defer release()

	deadline := e.window.ComputeDeadline(submittedAt)
	created.AuctionEndTime = &deadline
	live, err := e.transitionLocked(ctx, created, models.StatusLiveAuction, actor, "application submitted")
	if err != nil {
		return models.Application{}, err
	}

	e.logger.Info("application entered live auction", map[string]interface{}{
		"applicationId":  live.ID,
		"auctionEndTime": deadline,
		"priorityLevel":  string(live.PriorityLevel),
	})
	return live, nil
}

// Transition moves an application to the target status on behalf of an
// explicit actor. Illegal transitions fail with a state conflict; the expiry
// transition is idempotent and succeeds as a no-op when the application is
// already terminal.
func (e *Engine) Transition(ctx context.Context, applicationID string, target models.ApplicationStatus, actor models.Actor, reason string) (models.Application, error) {
	if !target.IsValid() {
		return models.Application{}, stderrors.NewValidationFailedError(
			fmt.Sprintf("unknown status %q", target))
	}

	release := e.locks.acquire(applicationID)
	defer release()

	app, err := e.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}

	if target == models.StatusExpired {
		return e.expireLocked(ctx, app)
	}
	if target == models.StatusCompleted {
		// completed is only reachable through offer selection, which also
		// records the winning offer.
		return models.Application{}, stderrors.NewStateConflictError(
			"completed is reached by selecting an offer")
	}

	app, err = e.maybeExpireLocked(ctx, app)
	if err != nil {
		return models.Application{}, err
	}

	if err := e.authorizeTransition(app, target, actor); err != nil {
		return models.Application{}, err
	}
	return e.transitionLocked(ctx, app, target, actor, reason)
}

// authorizeTransition gates explicit status changes. Admins may request any
// table-approved transition; a business may withdraw its own application to
// ignored; the system actor drives expiry only.
func (e *Engine) authorizeTransition(app models.Application, target models.ApplicationStatus, actor models.Actor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleBusiness:
		if app.OwnerBusinessID != actor.ID {
			return stderrors.NewAuthorizationFailedError("application belongs to another business")
		}
		if target != models.StatusIgnored {
			return stderrors.NewAuthorizationFailedError(
				fmt.Sprintf("business cannot request transition to %s", target))
		}
		return nil
	default:
		return stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot change application status", actor.Role))
	}
}

// transitionLocked validates against the table and persists the new status
// together with its audit entry in one storage write. Callers hold the
// application's lock.
func (e *Engine) transitionLocked(ctx context.Context, app models.Application, target models.ApplicationStatus, actor models.Actor, reason string) (models.Application, error) {
	if !transitionAllowed(app.Status, target) {
		return models.Application{}, stderrors.NewStateConflictError(
			fmt.Sprintf("transition %s -> %s is not permitted", app.Status, target))
	}

	from := app.Status
	app.Status = target
	entry := models.AuditEntry{
		ApplicationID: app.ID,
		FromStatus:    from,
		ToStatus:      target,
		Actor:         actor,
		Reason:        reason,
		Timestamp:     e.now(),
	}
	updated, err := e.apps.TransitionApplication(ctx, app, entry)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Application{}, stderrors.NewResourceNotFoundError("application", app.ID)
		}
		return models.Application{}, storageError(err)
	}

	e.audit.Mirror(ctx, entry)
	return updated, nil
}

// maybeExpireLocked applies the lazy expiry rule: an application still in
// live_auction past its deadline is moved to expired by the system actor
// before the caller's own intent is evaluated.
func (e *Engine) maybeExpireLocked(ctx context.Context, app models.Application) (models.Application, error) {
	if app.Status != models.StatusLiveAuction || !e.window.HasElapsed(app, e.now()) {
		return app, nil
	}
	return e.transitionLocked(ctx, app, models.StatusExpired, models.System, "auction window elapsed")
}

// expireLocked is the expiry transition itself. Repeating it on an already
// terminal application is a no-op success rather than an error.
func (e *Engine) expireLocked(ctx context.Context, app models.Application) (models.Application, error) {
	if app.Status.IsTerminal() {
		return app, nil
	}
	if app.Status != models.StatusLiveAuction {
		return models.Application{}, stderrors.NewStateConflictError(
			fmt.Sprintf("cannot expire application in status %s", app.Status))
	}
	if !e.window.HasElapsed(app, e.now()) {
		return models.Application{}, stderrors.NewStateConflictError("auction window has not elapsed")
	}
	return e.transitionLocked(ctx, app, models.StatusExpired, models.System, "auction window elapsed")
}

func (e *Engine) loadApplication(ctx context.Context, applicationID string) (models.Application, error) {
	app, err := e.apps.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Application{}, stderrors.NewResourceNotFoundError("application", applicationID)
		}
		return models.Application{}, storageError(err)
	}
	return app, nil
}
