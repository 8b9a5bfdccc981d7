package model

import "time"

// InviteState is the lifecycle state of an invite token.
type InviteState string

const (
	InviteActive    InviteState = "active"
	InviteExhausted InviteState = "exhausted"
	InviteExpired   InviteState = "expired"
	InviteRevoked   InviteState = "revoked"
)

// Invite is a consumable token granting membership in a specific circle.
// UsesRemaining only ever decreases; the state moves to exhausted when it
// reaches zero, to expired once ExpiresAt has passed, and to revoked only
// through an explicit owner/admin action.
type Invite struct {
	Token         string      `db:"token" json:"token"`
	CircleID      string      `db:"circle_id" json:"circle_id"`
	CreatedBy     string      `db:"created_by" json:"created_by"`
	AssignedRole  Role        `db:"assigned_role" json:"assigned_role"`
	AssignedLabel string      `db:"assigned_label" json:"assigned_label"`
	MaxUses       int         `db:"max_uses" json:"max_uses"`
	UsesRemaining int         `db:"uses_remaining" json:"uses_remaining"`
	ExpiresAt     time.Time   `db:"expires_at" json:"expires_at"`
	State         InviteState `db:"state" json:"state"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}
