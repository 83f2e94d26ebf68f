// internal/engine/sweep.go
package engine

import (
	"context"

	"leadauction-workers/internal/models"
)

// SweepExpired transitions every live auction past its deadline to expired.
// Lazy checks on touching operations already guarantee a closed auction is
// never bid on; the sweep keeps statuses fresh for applications nobody
// touches. Safe to run repeatedly and concurrently. Returns the number of
// applications expired by this run.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	candidates, err := e.apps.ListApplicationsByStatus(ctx, models.StatusLiveAuction)
	if err != nil {
		return 0, storageError(err)
	}

	now := e.now()
	expired := 0
	for _, candidate := range candidates {
		if !e.window.HasElapsed(candidate, now) {
			continue
		}

		release := e.locks.acquire(candidate.ID)
		// Reload under the lock; a concurrent selection or lazy expiry may
		// have moved the application on since the listing.
		app, err := e.loadApplication(ctx, candidate.ID)
		if err != nil {
			release()
			return expired, err
		}
		if app.Status != models.StatusLiveAuction || !e.window.HasElapsed(app, now) {
			release()
			continue
		}
		if _, err := e.transitionLocked(ctx, app, models.StatusExpired, models.System, "auction window elapsed"); err != nil {
			release()
			return expired, err
		}
		release()
		expired++
	}

	if expired > 0 {
		e.logger.Info("expiry sweep complete", map[string]interface{}{
			"expired": expired,
		})
	}
	return expired, nil
}
