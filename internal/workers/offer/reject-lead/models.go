// internal/workers/offer/reject-lead/models.go
package rejectlead

type Input struct {
	ApplicationID string `json:"applicationId"`
	BidderID      string `json:"bidderId"`
	Reason        string `json:"reason"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	BidderID      string `json:"bidderId"`
	Reason        string `json:"reason"`
	RejectedAt    string `json:"rejectedAt"` // ISO 8601
}
