// internal/engine/analytics.go
package engine

import (
	"context"
	"time"

	"leadauction-workers/internal/models"
)

// LeadMetrics are the processing-time figures for one application, derived
// from the audit trail and offer timestamps. Durations that have not
// happened yet (no offer, not completed) are nil.
type LeadMetrics struct {
	ApplicationID    string                   `json:"applicationId"`
	Status           models.ApplicationStatus `json:"status"`
	AuctionWindow    time.Duration            `json:"auctionWindowNs"`
	TimeToFirstOffer *time.Duration           `json:"timeToFirstOfferNs,omitempty"`
	TimeToCompletion *time.Duration           `json:"timeToCompletionNs,omitempty"`
	OfferCount       int                      `json:"offerCount"`
	DistinctViewers  int                      `json:"distinctViewers"`
}

// ApplicationMetrics computes the lead's processing-time metrics. The audit
// trail is the canonical source: the live_auction entry marks the auction
// start, the completed entry the settlement.
func (e *Engine) ApplicationMetrics(ctx context.Context, applicationID string) (*LeadMetrics, error) {
	app, err := e.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	trail, err := e.audit.Read(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}
	offers, err := e.offers.ListOffers(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}
	viewers, err := e.views.DistinctViewers(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}

	metrics := &LeadMetrics{
		ApplicationID:   applicationID,
		Status:          app.Status,
		OfferCount:      len(offers),
		DistinctViewers: viewers,
	}
	if app.AuctionEndTime != nil {
		metrics.AuctionWindow = app.AuctionEndTime.Sub(app.SubmittedAt)
	}

	var auctionStart, completedAt *time.Time
	for _, entry := range trail {
		ts := entry.Timestamp
		switch entry.ToStatus {
		case models.StatusLiveAuction:
			if auctionStart == nil {
				auctionStart = &ts
			}
		case models.StatusCompleted:
			if completedAt == nil {
				completedAt = &ts
			}
		}
	}

	if auctionStart != nil && len(offers) > 0 {
		d := offers[0].SubmittedAt.Sub(*auctionStart)
		metrics.TimeToFirstOffer = &d
	}
	if auctionStart != nil && completedAt != nil {
		d := completedAt.Sub(*auctionStart)
		metrics.TimeToCompletion = &d
	}
	return metrics, nil
}

// BidderConversion is offers submitted over applications viewed for one
// bank user. A bidder who has viewed nothing converts at zero.
func (e *Engine) BidderConversion(ctx context.Context, bidderID string) (float64, error) {
	viewed, err := e.views.ViewedApplications(ctx, bidderID)
	if err != nil {
		return 0, storageError(err)
	}
	if viewed == 0 {
		return 0, nil
	}
	submitted, err := e.offers.CountOffersByBidder(ctx, bidderID)
	if err != nil {
		return 0, storageError(err)
	}
	return float64(submitted) / float64(viewed), nil
}

// DistinctViewers exposes the cached distinct-viewer count for a lead.
func (e *Engine) DistinctViewers(ctx context.Context, applicationID string) (int, error) {
	count, err := e.views.DistinctViewers(ctx, applicationID)
	if err != nil {
		return 0, storageError(err)
	}
	return count, nil
}
