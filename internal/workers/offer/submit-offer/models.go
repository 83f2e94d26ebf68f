// internal/workers/offer/submit-offer/models.go
package submitoffer

import "leadauction-workers/internal/models"

type Input struct {
	ApplicationID string                 `json:"applicationId"`
	BidderID      string                 `json:"bidderId"`
	Terms         map[string]interface{} `json:"terms"`
	FeeAccepted   bool                   `json:"feeAccepted"`
	Document      *models.DocumentRef    `json:"document,omitempty"`
}

type Output struct {
	OfferID     string `json:"offerId"`
	OfferStatus string `json:"offerStatus"`
	SubmittedAt string `json:"submittedAt"` // ISO 8601
	ExpiresAt   string `json:"expiresAt"`   // ISO 8601
}
