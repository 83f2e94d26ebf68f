// internal/models/audit.go
package models

import "time"

// AuditEntry is one write-once row in an application's status history. The
// audit trail is append-only, ordered by timestamp, and is the canonical
// source for "status changed from X to Y" views and processing-time
// analytics.
type AuditEntry struct {
	ApplicationID string            `json:"applicationId"`
	FromStatus    ApplicationStatus `json:"fromStatus"`
	ToStatus      ApplicationStatus `json:"toStatus"`
	Actor         Actor             `json:"actor"`
	Reason        string            `json:"reason"`
	Timestamp     time.Time         `json:"timestamp"`
}
