// internal/models/tracking.go
package models

import "time"

// ViewRecord marks the first time a viewer opened an application. Unique per
// (application, viewer); insertion is idempotent and records are never
// deleted.
type ViewRecord struct {
	ApplicationID string    `json:"applicationId"`
	ViewerID      string    `json:"viewerId"`
	FirstViewedAt time.Time `json:"firstViewedAt"`
}

// RejectionRecord captures a single bidder declining a lead. It is tracked
// independently of the application's global status: a lead can stay in
// live_auction while declined by a subset of bidders.
type RejectionRecord struct {
	ApplicationID string    `json:"applicationId"`
	ViewerID      string    `json:"viewerId"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}
