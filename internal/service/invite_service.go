package service

import (
	"context"
	"time"

	"app/internal/apperr"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/util"

	"github.com/rs/zerolog"
)

const (
	// DefaultInviteMaxUses applies when a creation request omits max uses.
	DefaultInviteMaxUses = 1
	// DefaultInviteTTL applies when a creation request omits an expiry.
	DefaultInviteTTL = 7 * 24 * time.Hour

	// Token collisions are resolved by regenerating; more than a couple of
	// retries in a 36^12 keyspace means something else is wrong.
	maxTokenAttempts = 3
)

// InviteService manages invite token lifecycle.
type InviteService interface {
	// CreateInvite mints a token for the circle. maxUses <= 0 and ttl <= 0
	// take the defaults. The assigned role must be member or admin.
	CreateInvite(ctx context.Context, actorID, circleID string, maxUses int, ttl time.Duration, role model.Role, label string) (*model.Invite, error)
	// Validate checks a token without consuming it, returning the invite
	// when it is currently usable.
	Validate(ctx context.Context, token string) (*model.Invite, error)
	ListCircleInvites(ctx context.Context, actorID, circleID string) ([]model.Invite, error)
	// Revoke permanently invalidates a token. Revoking an already revoked
	// invite succeeds.
	Revoke(ctx context.Context, actorID, token string) error
}

type inviteService struct {
	invites repository.InviteRepository
	members MemberService
	events  EventSink
	logger  zerolog.Logger
	now     func() time.Time
}

// NewInviteService creates a new InviteService.
func NewInviteService(
	invites repository.InviteRepository,
	members MemberService,
	events EventSink,
	logger zerolog.Logger,
) InviteService {
	return &inviteService{
		invites: invites,
		members: members,
		events:  events,
		logger:  logger.With().Str("service", "invite").Logger(),
		now:     time.Now,
	}
}

func (s *inviteService) CreateInvite(ctx context.Context, actorID, circleID string, maxUses int, ttl time.Duration, role model.Role, label string) (*model.Invite, error) {
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() || role == model.RoleOwner {
		return nil, apperr.InvalidRole("invites can only assign member or admin")
	}
	if maxUses <= 0 {
		maxUses = DefaultInviteMaxUses
	}
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	if _, err := s.members.CheckPermission(ctx, actorID, circleID, model.OpCreateInvite); err != nil {
		return nil, err
	}

	inv := &model.Invite{
		CircleID:      circleID,
		CreatedBy:     actorID,
		AssignedRole:  role,
		AssignedLabel: label,
		MaxUses:       maxUses,
		UsesRemaining: maxUses,
		ExpiresAt:     s.now().Add(ttl).UTC(),
	}
	for attempt := 0; ; attempt++ {
		token, err := util.NewInviteToken()
		if err != nil {
			return nil, err
		}
		inv.Token = token
		err = s.invites.Create(ctx, inv)
		if err == nil {
			break
		}
		if apperr.IsCode(err, apperr.CodeConflict) && attempt < maxTokenAttempts-1 {
			s.logger.Warn().Str("circle_id", circleID).Msg("Invite token collision, regenerating")
			continue
		}
		return nil, err
	}

	s.events.Emit(ctx, model.Event{
		Type:     model.EventInviteCreated,
		CircleID: circleID,
		ActorID:  actorID,
	})
	s.logger.Info().
		Str("circle_id", circleID).
		Str("role", string(role)).
		Int("max_uses", maxUses).
		Msg("Created invite")
	return inv, nil
}

func (s *inviteService) Validate(ctx context.Context, token string) (*model.Invite, error) {
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := usableInvite(inv, s.now()); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *inviteService) ListCircleInvites(ctx context.Context, actorID, circleID string) ([]model.Invite, error) {
	if _, err := s.members.CheckPermission(ctx, actorID, circleID, model.OpListInvites); err != nil {
		return nil, err
	}
	return s.invites.ListByCircle(ctx, circleID)
}

func (s *inviteService) Revoke(ctx context.Context, actorID, token string) error {
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.members.CheckPermission(ctx, actorID, inv.CircleID, model.OpRevokeInvite); err != nil {
		return err
	}
	if err := s.invites.Revoke(ctx, token); err != nil {
		return err
	}
	s.logger.Info().Str("circle_id", inv.CircleID).Msg("Revoked invite")
	return nil
}

// usableInvite reports why an invite cannot be consumed right now, checking
// revocation before expiry before exhaustion.
func usableInvite(inv *model.Invite, now time.Time) error {
	switch {
	case inv.State == model.InviteRevoked:
		return apperr.InviteRevoked()
	case now.After(inv.ExpiresAt):
		return apperr.InviteExpired()
	case inv.UsesRemaining <= 0 || inv.State == model.InviteExhausted:
		return apperr.InviteExhausted()
	}
	return nil
}
