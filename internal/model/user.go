package model

import "time"

// User represents a user in the system. Identity is supplied by the auth
// layer; the core never verifies credentials.
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserUsage summarizes a user's tier, its limits, and current consumption.
type UserUsage struct {
	UserID       string     `json:"user_id"`
	Tier         Tier       `json:"tier"`
	Limits       LimitTable `json:"limits"`
	CirclesOwned int        `json:"circles_owned"`
}
