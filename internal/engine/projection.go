// internal/engine/projection.go
package engine

import (
	"context"
	"time"

	"leadauction-workers/internal/models"
)

// Projection is the one canonical read model of a lead: the application with
// its offers, history and rejection records assembled in a single call.
type Projection struct {
	Application models.Application       `json:"application"`
	Offers      []models.Offer           `json:"offers"`
	AuditTrail  []models.AuditEntry      `json:"auditTrail"`
	Rejections  []models.RejectionRecord `json:"rejections"`
	// TimeRemaining is zero once the window has closed.
	TimeRemaining time.Duration `json:"timeRemainingNs"`
}

// GetApplication assembles the read projection. It never mutates state;
// stale live_auction statuses past the deadline are corrected by the sweep
// or by the next mutating touch.
func (e *Engine) GetApplication(ctx context.Context, applicationID string) (*Projection, error) {
	app, err := e.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	offers, err := e.offers.ListOffers(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}
	trail, err := e.audit.Read(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}
	rejected, err := e.rejections.List(ctx, applicationID)
	if err != nil {
		return nil, storageError(err)
	}

	return &Projection{
		Application:   app,
		Offers:        offers,
		AuditTrail:    trail,
		Rejections:    rejected,
		TimeRemaining: e.window.Remaining(app, e.now()),
	}, nil
}
