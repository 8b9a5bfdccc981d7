package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService resolves a user's effective tier and limits.
type SubscriptionService interface {
	// ResolveLimits returns the user's effective tier and its limit table.
	// Users without a subscription row, or with an inactive one, resolve to
	// the free tier. Returns apperr.NotFound when the user does not exist.
	ResolveLimits(ctx context.Context, userID string) (model.Tier, model.LimitTable, error)
	// GetUsage returns the user's tier, limits, and current consumption.
	GetUsage(ctx context.Context, userID string) (*model.UserUsage, error)
}

type subscriptionService struct {
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	circles repository.CircleRepository
	logger  zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	circles repository.CircleRepository,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		users:   users,
		subs:    subs,
		circles: circles,
		logger:  logger.With().Str("service", "subscription").Logger(),
	}
}

func (s *subscriptionService) ResolveLimits(ctx context.Context, userID string) (model.Tier, model.LimitTable, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", model.LimitTable{}, err
	}

	tier := model.TierFree
	sub, err := s.subs.GetSubscription(ctx, userID)
	if err != nil {
		return "", model.LimitTable{}, err
	}
	if sub != nil && sub.Status == model.SubscriptionActive {
		tier = sub.Tier
	}
	return tier, model.LimitsForTier(tier), nil
}

func (s *subscriptionService) GetUsage(ctx context.Context, userID string) (*model.UserUsage, error) {
	tier, limits, err := s.ResolveLimits(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned, err := s.circles.CountOwnedCircles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserUsage{
		UserID:       userID,
		Tier:         tier,
		Limits:       limits,
		CirclesOwned: owned,
	}, nil
}
