// internal/models/application.go
package models

import "time"

// ApplicationStatus is the closed set of lifecycle states for a financing
// application. Transitions between them are governed by the engine's
// transition table; callers never write the status field directly.
type ApplicationStatus string

const (
	StatusDraft         ApplicationStatus = "draft"
	StatusLiveAuction   ApplicationStatus = "live_auction"
	StatusApprovedLeads ApplicationStatus = "approved_leads"
	StatusCompleted     ApplicationStatus = "completed"
	StatusIgnored       ApplicationStatus = "ignored"
	StatusExpired       ApplicationStatus = "expired"
)

// IsTerminal reports whether no further transition is possible in normal
// operation.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusIgnored, StatusExpired:
		return true
	}
	return false
}

// IsValid reports whether s is one of the known statuses.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusLiveAuction, StatusApprovedLeads,
		StatusCompleted, StatusIgnored, StatusExpired:
		return true
	}
	return false
}

// PriorityLevel mirrors the routing priority assigned at submission.
type PriorityLevel string

const (
	PriorityStandard PriorityLevel = "standard"
	PriorityHigh     PriorityLevel = "high"
)

// Application is a business financing lead progressing through the auction
// lifecycle. AuctionEndTime is nil until the auction starts; SelectedOfferID
// is set exactly once, when the application enters completed.
type Application struct {
	ID               string                 `json:"id"`
	OwnerBusinessID  string                 `json:"ownerBusinessId"`
	Status           ApplicationStatus      `json:"status"`
	FinancialProfile map[string]interface{} `json:"financialProfile"`
	PriorityLevel    PriorityLevel          `json:"priorityLevel"`
	SubmittedAt      time.Time              `json:"submittedAt"`
	AuctionEndTime   *time.Time             `json:"auctionEndTime,omitempty"`
	SelectedOfferID  *string                `json:"selectedOfferId,omitempty"`
	Document         *DocumentRef           `json:"document,omitempty"`
}
