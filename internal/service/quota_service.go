package service

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// QuotaService enforces per-circle content quotas. Circle quotas are
// priced against the circle owner's tier: promoting an owner raises the
// ceiling and demoting lowers it, with no per-member accounting.
type QuotaService interface {
	// Reserve atomically checks and records amount units of kind against the
	// circle. Returns the new count, or apperr.QuotaExceeded without
	// recording anything.
	Reserve(ctx context.Context, circleID string, kind model.ResourceKind, amount int) (int, error)
	// Release returns previously reserved units, clamping at zero. Releasing
	// never fails a quota check.
	Release(ctx context.Context, circleID string, kind model.ResourceKind, amount int) error
}

type quotaService struct {
	memberships repository.MembershipRepository
	subs        SubscriptionService
	usage       repository.UsageRepository
	logger      zerolog.Logger
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(
	memberships repository.MembershipRepository,
	subs SubscriptionService,
	usage repository.UsageRepository,
	logger zerolog.Logger,
) QuotaService {
	return &quotaService{
		memberships: memberships,
		subs:        subs,
		usage:       usage,
		logger:      logger.With().Str("service", "quota").Logger(),
	}
}

func (s *quotaService) Reserve(ctx context.Context, circleID string, kind model.ResourceKind, amount int) (int, error) {
	if kind != model.ResourcePhoto && kind != model.ResourceStory {
		return 0, fmt.Errorf("cannot reserve resource kind %q against a circle", kind)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("reservation amount must be positive, got %d", amount)
	}

	owner, err := s.memberships.GetOwner(ctx, circleID)
	if err != nil {
		return 0, err
	}
	_, limits, err := s.subs.ResolveLimits(ctx, owner.UserID)
	if err != nil {
		return 0, err
	}

	current, err := s.usage.Reserve(ctx, circleID, kind, amount, limits.LimitFor(kind))
	if err != nil {
		return 0, err
	}
	s.logger.Debug().
		Str("circle_id", circleID).
		Str("kind", string(kind)).
		Int("count", current).
		Msg("Reserved circle resources")
	return current, nil
}

func (s *quotaService) Release(ctx context.Context, circleID string, kind model.ResourceKind, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("release amount must be positive, got %d", amount)
	}
	return s.usage.Release(ctx, circleID, kind, amount)
}
