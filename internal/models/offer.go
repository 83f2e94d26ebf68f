// internal/models/offer.go
package models

import "time"

// OfferStatus is the closed set of states a bank offer moves through. An
// offer is created as submitted and reaches exactly one terminal state; the
// status field is mutated only by the selection arbiter.
type OfferStatus string

const (
	OfferSubmitted OfferStatus = "submitted"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferExpired   OfferStatus = "expired"
)

// Offer is a bank's bid on a live application. At most one offer exists per
// (application, bidder) pair, and at most one offer per application ever
// becomes accepted.
type Offer struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"applicationId"`
	BidderID      string                 `json:"bidderId"`
	Terms         map[string]interface{} `json:"terms"`
	Status        OfferStatus            `json:"status"`
	SubmittedAt   time.Time              `json:"submittedAt"`
	ExpiresAt     time.Time              `json:"expiresAt"`
	Document      *DocumentRef           `json:"document,omitempty"`
}
