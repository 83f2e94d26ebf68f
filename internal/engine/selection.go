// internal/engine/selection.go
package engine

import (
	"context"
	"errors"
	"fmt"

	stderrors "leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

// SelectOffer commits a winning offer. Inside the application's critical
// section it re-validates current state, then settles in one atomic storage
// step: winner accepted, every sibling rejected, winning offer id recorded
// and the application completed. A transient storage failure leaves every
// row untouched, so a retried call settles normally. Of two concurrent
// calls on the same application exactly one succeeds; the loser always gets
// the already-decided error.
func (e *Engine) SelectOffer(ctx context.Context, applicationID, offerID string, actor models.Actor) (models.Application, error) {
	release := e.locks.acquire(applicationID)
	defer release()

	app, err := e.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}

	if err := e.authorizeSelection(app, actor); err != nil {
		return models.Application{}, err
	}

	app, err = e.maybeExpireLocked(ctx, app)
	if err != nil {
		return models.Application{}, err
	}

	switch app.Status {
	case models.StatusCompleted:
		return models.Application{}, stderrors.NewAlreadyDecidedError(applicationID)
	case models.StatusLiveAuction, models.StatusApprovedLeads:
		// eligible
	case models.StatusExpired:
		return models.Application{}, stderrors.NewAuctionClosedError(applicationID)
	default:
		return models.Application{}, stderrors.NewNotEligibleError(offerID,
			fmt.Sprintf("application is %s", app.Status))
	}

	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return models.Application{}, err
	}
	if offer.ApplicationID != applicationID {
		return models.Application{}, stderrors.NewNotEligibleError(offerID, "offer belongs to another application")
	}
	if offer.Status != models.OfferSubmitted {
		return models.Application{}, stderrors.NewNotEligibleError(offerID,
			fmt.Sprintf("offer is %s", offer.Status))
	}

	// A selection while the window is still open passes through
	// approved_leads before settling, keeping the transition table the only
	// authority on status changes.
	if app.Status == models.StatusLiveAuction {
		app, err = e.transitionLocked(ctx, app, models.StatusApprovedLeads, actor, "offer accepted")
		if err != nil {
			return models.Application{}, err
		}
	}

	from := app.Status
	app.Status = models.StatusCompleted
	app.SelectedOfferID = &offerID
	entry := models.AuditEntry{
		ApplicationID: applicationID,
		FromStatus:    from,
		ToStatus:      models.StatusCompleted,
		Actor:         actor,
		Reason:        fmt.Sprintf("offer %s selected", offerID),
		Timestamp:     e.now(),
	}
	completed, err := e.apps.SettleApplication(ctx, app, offerID, entry)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Application{}, stderrors.NewResourceNotFoundError("offer", offerID)
		}
		return models.Application{}, storageError(err)
	}
	e.audit.Mirror(ctx, entry)

	e.logger.Info("offer selected", map[string]interface{}{
		"applicationId": applicationID,
		"offerId":       offerID,
		"actorId":       actor.ID,
	})
	return completed, nil
}

// DeclineOffer marks a single offer rejected without touching the
// application's status. The window stays open for other bidders.
func (e *Engine) DeclineOffer(ctx context.Context, applicationID, offerID string, actor models.Actor) (models.Offer, error) {
	release := e.locks.acquire(applicationID)
	defer release()

	app, err := e.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Offer{}, err
	}

	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return models.Offer{}, err
	}
	if offer.ApplicationID != applicationID {
		return models.Offer{}, stderrors.NewNotEligibleError(offerID, "offer belongs to another application")
	}

	if err := e.authorizeDecline(app, offer, actor); err != nil {
		return models.Offer{}, err
	}

	if offer.Status == models.OfferAccepted {
		return models.Offer{}, stderrors.NewAlreadyDecidedError(applicationID)
	}
	if offer.Status == models.OfferRejected {
		// Idempotent under retries.
		return offer, nil
	}

	if err := e.offers.UpdateOfferStatus(ctx, offerID, models.OfferRejected); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Offer{}, stderrors.NewResourceNotFoundError("offer", offerID)
		}
		return models.Offer{}, storageError(err)
	}
	offer.Status = models.OfferRejected

	if err := e.audit.Append(ctx, models.AuditEntry{
		ApplicationID: applicationID,
		FromStatus:    app.Status,
		ToStatus:      app.Status,
		Actor:         actor,
		Reason:        fmt.Sprintf("offer %s declined", offerID),
		Timestamp:     e.now(),
	}); err != nil {
		return models.Offer{}, storageError(err)
	}
	return offer, nil
}

// authorizeSelection allows the owning business and admins to pick a
// winner.
func (e *Engine) authorizeSelection(app models.Application, actor models.Actor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleBusiness:
		if app.OwnerBusinessID != actor.ID {
			return stderrors.NewAuthorizationFailedError("application belongs to another business")
		}
		return nil
	default:
		return stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot select offers", actor.Role))
	}
}

// authorizeDecline allows the owning business to turn an offer down, the
// submitting bank to withdraw it, and admins either way.
func (e *Engine) authorizeDecline(app models.Application, offer models.Offer, actor models.Actor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleBusiness:
		if app.OwnerBusinessID != actor.ID {
			return stderrors.NewAuthorizationFailedError("application belongs to another business")
		}
		return nil
	case models.RoleBank:
		if offer.BidderID != actor.ID {
			return stderrors.NewAuthorizationFailedError("offer belongs to another bidder")
		}
		return nil
	default:
		return stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot decline offers", actor.Role))
	}
}

func (e *Engine) loadOffer(ctx context.Context, offerID string) (models.Offer, error) {
	offer, err := e.offers.GetOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Offer{}, stderrors.NewResourceNotFoundError("offer", offerID)
		}
		return models.Offer{}, storageError(err)
	}
	return offer, nil
}
