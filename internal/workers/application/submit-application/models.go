// internal/workers/application/submit-application/models.go
package submitapplication

import "leadauction-workers/internal/models"

type Input struct {
	BusinessID       string                 `json:"businessId"`
	FinancialProfile map[string]interface{} `json:"financialProfile"`
	PriorityLevel    string                 `json:"priorityLevel"`
	Document         *models.DocumentRef    `json:"document,omitempty"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	SubmittedAt       string `json:"submittedAt"`    // ISO 8601
	AuctionEndTime    string `json:"auctionEndTime"` // ISO 8601
	PriorityLevel     string `json:"priorityLevel"`
}
