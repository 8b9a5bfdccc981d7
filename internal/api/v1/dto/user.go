package dto

import (
	"time"

	"app/internal/model"
)

// UserResponse is returned in API responses.
type UserResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse maps a user to its response shape.
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UsageResponse reports the user's tier, limits, and consumption.
type UsageResponse struct {
	Tier                string `json:"tier"`
	MaxCircles          int    `json:"max_circles"`
	MaxPhotosPerCircle  int    `json:"max_photos_per_circle"`
	MaxStoriesPerCircle int    `json:"max_stories_per_circle"`
	CirclesOwned        int    `json:"circles_owned"`
}

// NewUsageResponse maps usage figures to their response shape.
func NewUsageResponse(u *model.UserUsage) UsageResponse {
	return UsageResponse{
		Tier:                string(u.Tier),
		MaxCircles:          u.Limits.MaxCircles,
		MaxPhotosPerCircle:  u.Limits.MaxPhotosPerCircle,
		MaxStoriesPerCircle: u.Limits.MaxStoriesPerCircle,
		CirclesOwned:        u.CirclesOwned,
	}
}

// ProfileResponse combines the user record with usage figures.
type ProfileResponse struct {
	User  UserResponse  `json:"user"`
	Usage UsageResponse `json:"usage"`
}
