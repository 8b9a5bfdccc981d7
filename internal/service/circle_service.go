package service

import (
	"context"

	"app/internal/apperr"
	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CreateCircleInput carries the attributes of a new circle.
type CreateCircleInput struct {
	Type          model.CircleType
	Name          string
	Description   string
	CoverPhotoURL string
	Privacy       model.CirclePrivacy
}

// UpdateCircleInput carries a partial circle update. Nil fields are left
// unchanged.
type UpdateCircleInput struct {
	Name          *string
	Description   *string
	CoverPhotoURL *string
	Privacy       *model.CirclePrivacy
}

// CircleService manages circle lifecycle.
type CircleService interface {
	// CreateCircle creates a circle with the actor as owner, counting it
	// against the actor's circle quota atomically.
	CreateCircle(ctx context.Context, actorID string, in CreateCircleInput) (*model.Circle, error)
	GetCircle(ctx context.Context, actorID, circleID string) (*model.Circle, error)
	ListCircles(ctx context.Context, actorID string) ([]model.Circle, error)
	UpdateCircle(ctx context.Context, actorID, circleID string, in UpdateCircleInput) (*model.Circle, error)
	// DeleteCircle removes the circle and all dependent state. Owner only.
	DeleteCircle(ctx context.Context, actorID, circleID string) error
	// JoinViaInvite consumes an invite token and adds the caller as a
	// member with the invite's assigned role.
	JoinViaInvite(ctx context.Context, userID, token string) (*model.Circle, error)
	Stats(ctx context.Context, actorID, circleID string) (model.CircleStats, error)
}

type circleService struct {
	circles repository.CircleRepository
	invites repository.InviteRepository
	usage   repository.UsageRepository
	members MemberService
	subs    SubscriptionService
	events  EventSink
	logger  zerolog.Logger
}

// NewCircleService creates a new CircleService.
func NewCircleService(
	circles repository.CircleRepository,
	invites repository.InviteRepository,
	usage repository.UsageRepository,
	members MemberService,
	subs SubscriptionService,
	events EventSink,
	logger zerolog.Logger,
) CircleService {
	return &circleService{
		circles: circles,
		invites: invites,
		usage:   usage,
		members: members,
		subs:    subs,
		events:  events,
		logger:  logger.With().Str("service", "circle").Logger(),
	}
}

func (s *circleService) CreateCircle(ctx context.Context, actorID string, in CreateCircleInput) (*model.Circle, error) {
	if !in.Type.Valid() {
		return nil, apperr.Validation("unknown circle type")
	}
	if in.Name == "" {
		return nil, apperr.Validation("circle name is required")
	}
	if in.Privacy == "" {
		in.Privacy = model.PrivacyMembersOnly
	}
	if !in.Privacy.Valid() {
		return nil, apperr.Validation("unknown privacy setting")
	}

	_, limits, err := s.subs.ResolveLimits(ctx, actorID)
	if err != nil {
		return nil, err
	}

	circle := &model.Circle{
		ID:            uuid.NewString(),
		Type:          in.Type,
		Name:          in.Name,
		Description:   in.Description,
		CoverPhotoURL: in.CoverPhotoURL,
		Privacy:       in.Privacy,
		CreatedBy:     actorID,
	}
	owner := &model.CircleMembership{
		UserID:               actorID,
		Role:                 model.RoleOwner,
		NotificationsEnabled: true,
	}
	if err := s.circles.CreateCircleWithOwner(ctx, circle, owner, limits.MaxCircles); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.Event{
		Type:     model.EventCircleCreated,
		CircleID: circle.ID,
		ActorID:  actorID,
	})
	s.logger.Info().
		Str("circle_id", circle.ID).
		Str("type", string(circle.Type)).
		Str("owner_id", actorID).
		Msg("Created circle")
	return circle, nil
}

func (s *circleService) GetCircle(ctx context.Context, actorID, circleID string) (*model.Circle, error) {
	circle, err := s.circles.GetCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.CheckPermission(ctx, actorID, circleID, model.OpViewCircle); err != nil {
		return nil, err
	}
	return circle, nil
}

func (s *circleService) ListCircles(ctx context.Context, actorID string) ([]model.Circle, error) {
	return s.circles.ListUserCircles(ctx, actorID)
}

func (s *circleService) UpdateCircle(ctx context.Context, actorID, circleID string, in UpdateCircleInput) (*model.Circle, error) {
	circle, err := s.circles.GetCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.CheckPermission(ctx, actorID, circleID, model.OpUpdateCircle); err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.Validation("circle name is required")
		}
		circle.Name = *in.Name
	}
	if in.Description != nil {
		circle.Description = *in.Description
	}
	if in.CoverPhotoURL != nil {
		circle.CoverPhotoURL = *in.CoverPhotoURL
	}
	if in.Privacy != nil {
		if !in.Privacy.Valid() {
			return nil, apperr.Validation("unknown privacy setting")
		}
		circle.Privacy = *in.Privacy
	}

	if err := s.circles.UpdateCircle(ctx, circle); err != nil {
		return nil, err
	}
	return circle, nil
}

func (s *circleService) DeleteCircle(ctx context.Context, actorID, circleID string) error {
	if _, err := s.circles.GetCircle(ctx, circleID); err != nil {
		return err
	}
	if _, err := s.members.CheckPermission(ctx, actorID, circleID, model.OpDeleteCircle); err != nil {
		return err
	}
	if err := s.circles.DeleteCircleCascade(ctx, circleID); err != nil {
		return err
	}

	s.events.Emit(ctx, model.Event{
		Type:     model.EventCircleDeleted,
		CircleID: circleID,
		ActorID:  actorID,
	})
	s.logger.Info().Str("circle_id", circleID).Str("actor_id", actorID).Msg("Deleted circle")
	return nil
}

func (s *circleService) JoinViaInvite(ctx context.Context, userID, token string) (*model.Circle, error) {
	inv, err := s.invites.ConsumeAndJoin(ctx, token, userID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.Event{
		Type:     model.EventInviteConsumed,
		CircleID: inv.CircleID,
		ActorID:  userID,
	})
	s.events.Emit(ctx, model.Event{
		Type:     model.EventMemberAdded,
		CircleID: inv.CircleID,
		ActorID:  inv.CreatedBy,
		TargetID: userID,
	})
	s.logger.Info().
		Str("circle_id", inv.CircleID).
		Str("user_id", userID).
		Str("role", string(inv.AssignedRole)).
		Msg("User joined circle via invite")
	return s.circles.GetCircle(ctx, inv.CircleID)
}

func (s *circleService) Stats(ctx context.Context, actorID, circleID string) (model.CircleStats, error) {
	if _, err := s.members.CheckPermission(ctx, actorID, circleID, model.OpViewCircle); err != nil {
		return model.CircleStats{}, err
	}
	return s.usage.Stats(ctx, circleID)
}
