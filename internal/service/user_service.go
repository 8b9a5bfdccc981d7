package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// UserService provisions users from authenticated identities.
type UserService interface {
	// EnsureUser upserts the user record and guarantees a free-tier
	// subscription row exists. Idempotent; called on every authenticated
	// session bootstrap.
	EnsureUser(ctx context.Context, id, name, email string) (*model.User, error)
	// GetProfile returns the user together with tier and usage figures.
	GetProfile(ctx context.Context, id string) (*model.User, *model.UserUsage, error)
}

type userService struct {
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	subSvc SubscriptionService
	logger zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	subSvc SubscriptionService,
	logger zerolog.Logger,
) UserService {
	return &userService{
		users:  users,
		subs:   subs,
		subSvc: subSvc,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

func (s *userService) EnsureUser(ctx context.Context, id, name, email string) (*model.User, error) {
	u := &model.User{ID: id, Name: name, Email: email}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, err
	}
	if err := s.subs.EnsureFree(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) GetProfile(ctx context.Context, id string) (*model.User, *model.UserUsage, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	usage, err := s.subSvc.GetUsage(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return u, usage, nil
}
