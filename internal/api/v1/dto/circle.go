package dto

import (
	"time"

	"app/internal/model"
)

// CircleCreateRequest is the payload for creating a circle.
type CircleCreateRequest struct {
	Type          string `json:"type" validate:"required,oneof=family couple friends colleagues community mentor personal"`
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"max=500"`
	CoverPhotoURL string `json:"cover_photo_url" validate:"omitempty,url"`
	Privacy       string `json:"privacy" validate:"omitempty,oneof=private members_only link_access"`
}

// CircleUpdateRequest is a partial circle update. Omitted fields are left
// unchanged.
type CircleUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=500"`
	CoverPhotoURL *string `json:"cover_photo_url" validate:"omitempty,url"`
	Privacy       *string `json:"privacy" validate:"omitempty,oneof=private members_only link_access"`
}

// CircleResponse is returned in API responses.
type CircleResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CoverPhotoURL string    `json:"cover_photo_url"`
	Privacy       string    `json:"privacy"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewCircleResponse maps a circle to its response shape.
func NewCircleResponse(c *model.Circle) CircleResponse {
	return CircleResponse{
		ID:            c.ID,
		Type:          string(c.Type),
		Name:          c.Name,
		Description:   c.Description,
		CoverPhotoURL: c.CoverPhotoURL,
		Privacy:       string(c.Privacy),
		CreatedBy:     c.CreatedBy,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CircleStatsResponse reports per-circle counters.
type CircleStatsResponse struct {
	MemberCount int `json:"member_count"`
	PhotoCount  int `json:"photo_count"`
	StoryCount  int `json:"story_count"`
}
