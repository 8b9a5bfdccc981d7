package dto

import (
	"time"

	"app/internal/model"
)

// MemberAddRequest directly adds an existing user to a circle.
type MemberAddRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	Role        string `json:"role" validate:"omitempty,oneof=member admin"`
	CustomLabel string `json:"custom_label" validate:"max=50"`
}

// RoleUpdateRequest changes a member's role. Setting owner transfers
// ownership from the caller.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=member admin owner"`
}

// LeaveRequest optionally names a successor when the owner leaves.
type LeaveRequest struct {
	SuccessorID string `json:"successor_id"`
}

// MemberResponse is one entry in a member listing.
type MemberResponse struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CustomLabel string    `json:"custom_label"`
	JoinedAt    time.Time `json:"joined_at"`
}

// NewMemberResponse maps a member listing row to its response shape.
func NewMemberResponse(m model.Member) MemberResponse {
	return MemberResponse{
		UserID:      m.UserID,
		Name:        m.Name,
		Email:       m.Email,
		Role:        string(m.Role),
		CustomLabel: m.CustomLabel,
		JoinedAt:    m.JoinedAt,
	}
}

// MembershipResponse is returned after membership mutations.
type MembershipResponse struct {
	CircleID    string    `json:"circle_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	CustomLabel string    `json:"custom_label"`
	InvitedBy   string    `json:"invited_by,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// NewMembershipResponse maps a membership to its response shape.
func NewMembershipResponse(m *model.CircleMembership) MembershipResponse {
	return MembershipResponse{
		CircleID:    m.CircleID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		CustomLabel: m.CustomLabel,
		InvitedBy:   m.InvitedBy,
		JoinedAt:    m.JoinedAt,
	}
}
