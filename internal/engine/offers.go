// internal/engine/offers.go
package engine

import (
	"context"
	"errors"
	"fmt"

	stderrors "leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

// SubmitOfferInput is a bank's bid on a live application. FeeAccepted is the
// explicit acknowledgment of the platform commission terms; no offer is
// persisted without it.
type SubmitOfferInput struct {
	ApplicationID string
	BidderID      string
	Terms         map[string]interface{}
	FeeAccepted   bool
	Document      *models.DocumentRef
}

// SubmitOffer records a bid. Preconditions, in order: the application exists
// and is in live_auction with its window open, the fee is acknowledged, and
// the bidder has no prior offer on this application. A late bid always fails
// with the auction-closed error, triggering the lazy expiry transition first
// when the status is stale.
func (e *Engine) SubmitOffer(ctx context.Context, actor models.Actor, input SubmitOfferInput) (models.Offer, error) {
	if actor.Role != models.RoleBank && actor.Role != models.RoleAdmin {
		return models.Offer{}, stderrors.NewAuthorizationFailedError(
			fmt.Sprintf("role %s cannot submit offers", actor.Role))
	}
	if actor.Role == models.RoleBank && actor.ID != input.BidderID {
		return models.Offer{}, stderrors.NewAuthorizationFailedError("bidder id does not match caller")
	}
	if input.BidderID == "" || len(input.Terms) == 0 {
		return models.Offer{}, stderrors.NewValidationFailedError("bidder id and terms are required")
	}

	release := e.locks.acquire(input.ApplicationID)
	defer release()

	app, err := e.loadApplication(ctx, input.ApplicationID)
	if err != nil {
		return models.Offer{}, err
	}
	app, err = e.maybeExpireLocked(ctx, app)
	if err != nil {
		return models.Offer{}, err
	}

	now := e.now()
	if !e.window.IsOpen(app, now) {
		return models.Offer{}, stderrors.NewAuctionClosedError(input.ApplicationID)
	}
	if !input.FeeAccepted {
		return models.Offer{}, stderrors.NewFeeNotAcceptedError(input.BidderID)
	}

	// A configured TTL can shorten an offer's validity but never extend it
	// past the window close.
	expiresAt := *app.AuctionEndTime
	if e.offerTTL > 0 {
		if ttlEnd := now.Add(e.offerTTL); ttlEnd.Before(expiresAt) {
			expiresAt = ttlEnd
		}
	}

	offer, err := e.offers.CreateOffer(ctx, models.Offer{
		ApplicationID: input.ApplicationID,
		BidderID:      input.BidderID,
		Terms:         input.Terms,
		Status:        models.OfferSubmitted,
		SubmittedAt:   now,
		ExpiresAt:     expiresAt,
		Document:      input.Document,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateOffer) {
			return models.Offer{}, stderrors.NewDuplicateOfferError(input.ApplicationID, input.BidderID)
		}
		return models.Offer{}, storageError(err)
	}

	if err := e.audit.Append(ctx, models.AuditEntry{
		ApplicationID: input.ApplicationID,
		FromStatus:    app.Status,
		ToStatus:      app.Status,
		Actor:         actor,
		Reason:        fmt.Sprintf("offer %s submitted", offer.ID),
		Timestamp:     now,
	}); err != nil {
		return models.Offer{}, storageError(err)
	}

	e.logger.Info("offer submitted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"offerId":       offer.ID,
		"bidderId":      input.BidderID,
	})
	return offer, nil
}

// ListOffers returns an application's offers ordered by submission time
// ascending. Re-issuing the call restarts the sequence.
func (e *Engine) ListOffers(ctx context.Context, applicationID string) ([]models.Offer, error) {
	offers, err := e.offers.ListOffers(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}
	return offers, nil
}
