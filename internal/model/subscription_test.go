package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForTier(t *testing.T) {
	free := LimitsForTier(TierFree)
	assert.Equal(t, 3, free.MaxCircles)
	assert.Equal(t, 50, free.MaxPhotosPerCircle)
	assert.Equal(t, 10, free.MaxStoriesPerCircle)

	premium := LimitsForTier(TierPremium)
	assert.Equal(t, Unlimited, premium.MaxCircles)
	assert.Equal(t, Unlimited, premium.MaxPhotosPerCircle)

	// Unknown tiers fall back to free rather than failing open.
	assert.Equal(t, free, LimitsForTier(Tier("platinum")))
	assert.Equal(t, free, LimitsForTier(""))
}

func TestLimitFor(t *testing.T) {
	limits := LimitsForTier(TierPersonal)
	assert.Equal(t, 10, limits.LimitFor(ResourceCircle))
	assert.Equal(t, 200, limits.LimitFor(ResourcePhoto))
	assert.Equal(t, 100, limits.LimitFor(ResourceStory))
	assert.Equal(t, 0, limits.LimitFor(ResourceKind("video")))
}

func TestWithinLimit(t *testing.T) {
	assert.True(t, WithinLimit(3, 2, 1))
	assert.False(t, WithinLimit(3, 3, 1))
	assert.False(t, WithinLimit(3, 2, 2))
	assert.True(t, WithinLimit(Unlimited, 1_000_000, 1))
	assert.True(t, WithinLimit(0, 0, 0))
	assert.False(t, WithinLimit(0, 0, 1))
}
