// internal/workers/application/get-application/models.go
package getapplication

import "leadauction-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	Application models.Application       `json:"application"`
	Offers      []models.Offer           `json:"offers"`
	AuditTrail  []models.AuditEntry      `json:"auditTrail"`
	Rejections  []models.RejectionRecord `json:"rejections"`
	// TimeRemainingSeconds is zero once the auction window has closed.
	TimeRemainingSeconds float64 `json:"timeRemainingSeconds"`
}
