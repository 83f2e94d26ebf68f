// internal/models/actor.go
package models

// Role identifies the kind of authenticated caller behind an engine
// operation. Identity verification happens upstream; the engine only does
// role/ownership checks.
type Role string

const (
	RoleBusiness Role = "business"
	RoleBank     Role = "bank"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Actor is the explicit caller value passed into every mutating engine call.
// The engine keeps no ambient session state of its own.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the actor recorded for engine-initiated transitions such as
// auction expiry.
var System = Actor{ID: "system", Role: RoleSystem}
