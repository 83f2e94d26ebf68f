// Package window computes and evaluates auction deadlines. Expiry itself is
// enforced lazily by the engine; this package only answers "when does the
// window close" and "is it open right now".
package window

import (
	"time"

	"leadauction-workers/internal/models"
)

// DefaultDuration is the auction window applied when no override is
// configured.
const DefaultDuration = 48 * time.Hour

type Scheduler struct {
	duration time.Duration
}

// NewScheduler creates a scheduler with the given window duration. A zero or
// negative duration falls back to the default.
func NewScheduler(duration time.Duration) *Scheduler {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Scheduler{duration: duration}
}

// Duration returns the configured window length.
func (s *Scheduler) Duration() time.Duration {
	return s.duration
}

// ComputeDeadline returns submittedAt + window duration.
func (s *Scheduler) ComputeDeadline(submittedAt time.Time) time.Time {
	return submittedAt.Add(s.duration).UTC()
}

// IsOpen reports whether offers may still be placed on the application at
// the given instant. Fails closed: an application without an auction end
// time is never open.
func (s *Scheduler) IsOpen(app models.Application, now time.Time) bool {
	if app.Status != models.StatusLiveAuction {
		return false
	}
	if app.AuctionEndTime == nil {
		return false
	}
	return now.Before(*app.AuctionEndTime)
}

// HasElapsed reports whether the window deadline has passed. Unlike IsOpen
// it does not consider status, so the expiry path can use it on
// still-live_auction rows. An absent deadline never elapses.
func (s *Scheduler) HasElapsed(app models.Application, now time.Time) bool {
	if app.AuctionEndTime == nil {
		return false
	}
	return !now.Before(*app.AuctionEndTime)
}

// Remaining returns the time left in the window, clamped at zero.
func (s *Scheduler) Remaining(app models.Application, now time.Time) time.Duration {
	if app.AuctionEndTime == nil {
		return 0
	}
	left := app.AuctionEndTime.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
