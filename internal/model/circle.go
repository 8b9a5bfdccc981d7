package model

import "time"

// CircleType categorizes the relationship a circle represents.
type CircleType string

const (
	CircleTypeFamily     CircleType = "family"
	CircleTypeCouple     CircleType = "couple"
	CircleTypeFriends    CircleType = "friends"
	CircleTypeColleagues CircleType = "colleagues"
	CircleTypeCommunity  CircleType = "community"
	CircleTypeMentor     CircleType = "mentor"
	CircleTypePersonal   CircleType = "personal"
)

// Valid reports whether t is one of the known circle types.
func (t CircleType) Valid() bool {
	switch t {
	case CircleTypeFamily, CircleTypeCouple, CircleTypeFriends, CircleTypeColleagues,
		CircleTypeCommunity, CircleTypeMentor, CircleTypePersonal:
		return true
	}
	return false
}

// CirclePrivacy controls who can see a circle's content.
type CirclePrivacy string

const (
	PrivacyPrivate     CirclePrivacy = "private"
	PrivacyMembersOnly CirclePrivacy = "members_only"
	PrivacyLinkAccess  CirclePrivacy = "link_access"
)

// Valid reports whether p is a known privacy setting.
func (p CirclePrivacy) Valid() bool {
	switch p {
	case PrivacyPrivate, PrivacyMembersOnly, PrivacyLinkAccess:
		return true
	}
	return false
}

// Circle is a shared group of users with a typed relationship category.
type Circle struct {
	ID            string        `db:"id" json:"id"`
	Type          CircleType    `db:"type" json:"type"`
	Name          string        `db:"name" json:"name"`
	Description   string        `db:"description" json:"description"`
	CoverPhotoURL string        `db:"cover_photo_url" json:"cover_photo_url"`
	Privacy       CirclePrivacy `db:"privacy" json:"privacy"`
	CreatedBy     string        `db:"created_by" json:"created_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// CircleMembership is the role-tagged link between a user and a circle.
// A user holds at most one membership per circle, and every circle has
// exactly one membership with RoleOwner at any committed state.
type CircleMembership struct {
	CircleID             string    `db:"circle_id" json:"circle_id"`
	UserID               string    `db:"user_id" json:"user_id"`
	Role                 Role      `db:"role" json:"role"`
	CustomLabel          string    `db:"custom_label" json:"custom_label"`
	InvitedBy            string    `db:"invited_by" json:"invited_by"`
	NotificationsEnabled bool      `db:"notifications_enabled" json:"notifications_enabled"`
	JoinedAt             time.Time `db:"joined_at" json:"joined_at"`
}

// Member is the listing view of a membership joined with user profile fields.
type Member struct {
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Role        Role      `db:"role" json:"role"`
	CustomLabel string    `db:"custom_label" json:"custom_label"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// CircleStats aggregates the per-circle counters.
type CircleStats struct {
	MemberCount int `json:"member_count"`
	PhotoCount  int `json:"photo_count"`
	StoryCount  int `json:"story_count"`
}
