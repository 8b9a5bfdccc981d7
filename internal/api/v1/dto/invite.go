package dto

import (
	"time"

	"app/internal/model"
)

// InviteCreateRequest mints an invite token for a circle. Zero values take
// the server defaults (single use, seven days).
type InviteCreateRequest struct {
	MaxUses        int    `json:"max_uses" validate:"omitempty,min=1,max=1000"`
	ExpiresInHours int    `json:"expires_in_hours" validate:"omitempty,min=1,max=8760"`
	Role           string `json:"role" validate:"omitempty,oneof=member admin"`
	Label          string `json:"label" validate:"max=50"`
}

// InviteResponse is returned in API responses.
type InviteResponse struct {
	Token         string    `json:"token"`
	CircleID      string    `json:"circle_id"`
	CreatedBy     string    `json:"created_by"`
	AssignedRole  string    `json:"assigned_role"`
	AssignedLabel string    `json:"assigned_label,omitempty"`
	MaxUses       int       `json:"max_uses"`
	UsesRemaining int       `json:"uses_remaining"`
	ExpiresAt     time.Time `json:"expires_at"`
	State         string    `json:"state"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewInviteResponse maps an invite to its response shape.
func NewInviteResponse(inv *model.Invite) InviteResponse {
	return InviteResponse{
		Token:         inv.Token,
		CircleID:      inv.CircleID,
		CreatedBy:     inv.CreatedBy,
		AssignedRole:  string(inv.AssignedRole),
		AssignedLabel: inv.AssignedLabel,
		MaxUses:       inv.MaxUses,
		UsesRemaining: inv.UsesRemaining,
		ExpiresAt:     inv.ExpiresAt,
		State:         string(inv.State),
		CreatedAt:     inv.CreatedAt,
	}
}
