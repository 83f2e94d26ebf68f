package storage

import (
	"context"
	"errors"

	"leadauction-workers/internal/models"
)

// Sentinel errors shared by all store implementations. The engine maps these
// onto its caller-facing error taxonomy.
var (
	ErrNotFound       = errors.New("storage: not found")
	ErrAlreadyExists  = errors.New("storage: already exists")
	ErrDuplicateOffer = errors.New("storage: duplicate offer for bidder")
)

// ApplicationStore persists financing applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app models.Application) (models.Application, error)
	// TransitionApplication persists the application's new state together
	// with its audit entry. Both commit or fail as one; a status change
	// without its history entry is never observable.
	TransitionApplication(ctx context.Context, app models.Application, entry models.AuditEntry) (models.Application, error)
	// SettleApplication is the winner-selection write: the accepted offer,
	// the rejection of every sibling still in submitted, the application's
	// final state and the audit entry all commit atomically. A failure
	// leaves every row untouched so the selection can be retried. Returns
	// ErrNotFound when the offer does not belong to the application.
	SettleApplication(ctx context.Context, app models.Application, acceptedOfferID string, entry models.AuditEntry) (models.Application, error)
	GetApplication(ctx context.Context, id string) (models.Application, error)
	// ListApplicationsByStatus returns applications in the given status
	// ordered by submitted_at ascending. The expiry sweep uses it to find
	// live auctions past their deadline.
	ListApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error)
}

// OfferStore persists bank offers. Offers are append-only on creation; only
// the status field is ever updated.
type OfferStore interface {
	// CreateOffer inserts a new offer. Returns ErrDuplicateOffer when an
	// offer already exists for the (application, bidder) pair.
	CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error)
	UpdateOfferStatus(ctx context.Context, offerID string, status models.OfferStatus) error
	GetOffer(ctx context.Context, id string) (models.Offer, error)
	// ListOffers returns all offers for an application ordered by
	// submitted_at ascending.
	ListOffers(ctx context.Context, applicationID string) ([]models.Offer, error)
	CountOffersByBidder(ctx context.Context, bidderID string) (int, error)
}

// ViewStore persists first-view records.
type ViewStore interface {
	// RecordView inserts the pair if absent. The returned bool is true only
	// when this call created the record.
	RecordView(ctx context.Context, rec models.ViewRecord) (bool, error)
	CountDistinctViewers(ctx context.Context, applicationID string) (int, error)
	CountViewedApplications(ctx context.Context, viewerID string) (int, error)
}

// RejectionStore persists per-bidder lead rejections.
type RejectionStore interface {
	// UpsertRejection creates or refreshes the record for the
	// (application, viewer) pair.
	UpsertRejection(ctx context.Context, rec models.RejectionRecord) (models.RejectionRecord, error)
	ListRejections(ctx context.Context, applicationID string) ([]models.RejectionRecord, error)
}

// AuditStore persists the append-only status history.
type AuditStore interface {
	AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error
	// ListAuditEntries returns an application's history ordered by timestamp
	// ascending. Callers re-issue the query to restart the sequence.
	ListAuditEntries(ctx context.Context, applicationID string) ([]models.AuditEntry, error)
}
