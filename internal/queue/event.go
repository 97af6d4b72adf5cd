// Package queue defines the audit event exchanged over the message broker and
// the background consumer that records it.
package queue

import "time"

// AuditQueue is the durable queue audit events are published to.
const AuditQueue = "audit.events"

// Audit actions.
const (
	ActionLogin          = "auth.login"
	ActionRegister       = "auth.register"
	ActionLogout         = "auth.logout"
	ActionUserCreated    = "user.created"
	ActionUserUpdated    = "user.updated"
	ActionUserDeleted    = "user.deleted"
	ActionVehicleCreated = "vehicle.created"
	ActionVehicleUpdated = "vehicle.updated"
	ActionVehicleDeleted = "vehicle.deleted"
)

// AuditEvent is published after a successful sign-in or a mutation of an
// account or vehicle. It carries enough context for the consumer to write
// an audit line without querying the database.
type AuditEvent struct {
	Action     string    `json:"action"`
	ActorID    uint64    `json:"actor_id"`
	ActorRole  string    `json:"actor_role,omitempty"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   uint64    `json:"target_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}
