package model

import "time"

// Tier is a subscription level.
type Tier string

const (
	TierFree     Tier = "free"
	TierPersonal Tier = "personal"
	TierPlus     Tier = "plus"
	TierPremium  Tier = "premium"
)

// SubscriptionStatus is the billing status of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription links a user to their current tier.
type Subscription struct {
	UserID             string             `db:"user_id" json:"user_id"`
	Tier               Tier               `db:"tier" json:"tier"`
	Status             SubscriptionStatus `db:"status" json:"status"`
	CurrentPeriodStart *time.Time         `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `db:"current_period_end" json:"current_period_end,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// Unlimited is the sentinel for a limit with no ceiling.
const Unlimited = -1

// LimitTable is the resource ceiling set for a tier.
type LimitTable struct {
	MaxCircles          int `json:"max_circles"`
	MaxPhotosPerCircle  int `json:"max_photos_per_circle"`
	MaxStoriesPerCircle int `json:"max_stories_per_circle"`
}

var tierLimits = map[Tier]LimitTable{
	TierFree:     {MaxCircles: 3, MaxPhotosPerCircle: 50, MaxStoriesPerCircle: 10},
	TierPersonal: {MaxCircles: 10, MaxPhotosPerCircle: 200, MaxStoriesPerCircle: 100},
	TierPlus:     {MaxCircles: 25, MaxPhotosPerCircle: 1000, MaxStoriesPerCircle: 500},
	TierPremium:  {MaxCircles: Unlimited, MaxPhotosPerCircle: Unlimited, MaxStoriesPerCircle: Unlimited},
}

// LimitsForTier returns the limit table for a tier. Unknown tiers fall back
// to the free table.
func LimitsForTier(t Tier) LimitTable {
	if limits, ok := tierLimits[t]; ok {
		return limits
	}
	return tierLimits[TierFree]
}

// ResourceKind is a quota-bound resource.
type ResourceKind string

const (
	ResourceCircle ResourceKind = "circle"
	ResourcePhoto  ResourceKind = "photo"
	ResourceStory  ResourceKind = "story"
)

// LimitFor returns the ceiling for kind within the table.
func (l LimitTable) LimitFor(kind ResourceKind) int {
	switch kind {
	case ResourceCircle:
		return l.MaxCircles
	case ResourcePhoto:
		return l.MaxPhotosPerCircle
	case ResourceStory:
		return l.MaxStoriesPerCircle
	}
	return 0
}

// WithinLimit reports whether current+amount fits under limit,
// treating Unlimited as no ceiling.
func WithinLimit(limit, current, amount int) bool {
	if limit == Unlimited {
		return true
	}
	return current+amount <= limit
}
