package service

import (
	"context"

	"app/internal/apperr"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// MemberService manages memberships and enforces the role-based
// permission matrix for every circle operation.
type MemberService interface {
	// CheckPermission resolves the actor's membership and verifies it grants
	// op. Non-members get apperr.PermissionDenied, not NotFound, so outsiders
	// and under-privileged members are indistinguishable.
	CheckPermission(ctx context.Context, actorID, circleID string, op model.Operation) (*model.CircleMembership, error)
	ListMembers(ctx context.Context, actorID, circleID string) ([]model.Member, error)
	// AddMember directly adds a user with the given role. Only member and
	// admin are assignable; ownership moves only through UpdateRole.
	AddMember(ctx context.Context, actorID, circleID, targetUserID string, role model.Role, label string) (*model.CircleMembership, error)
	// UpdateRole changes a member's role. Promoting to owner is an ownership
	// transfer: the current owner is atomically demoted to admin.
	UpdateRole(ctx context.Context, actorID, circleID, targetUserID string, newRole model.Role) (*model.CircleMembership, error)
	// RemoveMember removes another member. The target must not outrank the
	// actor, so admins can remove members and peer admins but not the owner.
	RemoveMember(ctx context.Context, actorID, circleID, targetUserID string) error
	// Leave removes the actor's own membership. A sole-member owner leaving
	// deletes the circle; an owner with other members must name a successor
	// or transfer ownership first. Reports whether the circle was deleted.
	Leave(ctx context.Context, actorID, circleID, successorID string) (circleDeleted bool, err error)
}

type memberService struct {
	memberships repository.MembershipRepository
	users       repository.UserRepository
	events      EventSink
	logger      zerolog.Logger
}

// NewMemberService creates a new MemberService.
func NewMemberService(
	memberships repository.MembershipRepository,
	users repository.UserRepository,
	events EventSink,
	logger zerolog.Logger,
) MemberService {
	return &memberService{
		memberships: memberships,
		users:       users,
		events:      events,
		logger:      logger.With().Str("service", "member").Logger(),
	}
}

func (s *memberService) CheckPermission(ctx context.Context, actorID, circleID string, op model.Operation) (*model.CircleMembership, error) {
	m, err := s.memberships.GetMembership(ctx, circleID, actorID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, apperr.PermissionDenied("you are not a member of this circle")
		}
		return nil, err
	}
	if !model.Allowed(m.Role, op) {
		return nil, apperr.PermissionDenied("your role does not permit this operation")
	}
	return m, nil
}

func (s *memberService) ListMembers(ctx context.Context, actorID, circleID string) ([]model.Member, error) {
	if _, err := s.CheckPermission(ctx, actorID, circleID, model.OpListMembers); err != nil {
		return nil, err
	}
	return s.memberships.ListMembers(ctx, circleID)
}

func (s *memberService) AddMember(ctx context.Context, actorID, circleID, targetUserID string, role model.Role, label string) (*model.CircleMembership, error) {
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() || role == model.RoleOwner {
		return nil, apperr.InvalidRole("assignable roles are member and admin")
	}
	if _, err := s.CheckPermission(ctx, actorID, circleID, model.OpAddMember); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, targetUserID); err != nil {
		return nil, err
	}

	m := &model.CircleMembership{
		CircleID:             circleID,
		UserID:               targetUserID,
		Role:                 role,
		CustomLabel:          label,
		InvitedBy:            actorID,
		NotificationsEnabled: true,
	}
	if err := s.memberships.AddMember(ctx, m); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.Event{
		Type:     model.EventMemberAdded,
		CircleID: circleID,
		ActorID:  actorID,
		TargetID: targetUserID,
	})
	s.logger.Info().
		Str("circle_id", circleID).
		Str("user_id", targetUserID).
		Str("role", string(role)).
		Msg("Added member to circle")
	return m, nil
}

func (s *memberService) UpdateRole(ctx context.Context, actorID, circleID, targetUserID string, newRole model.Role) (*model.CircleMembership, error) {
	if !newRole.Valid() {
		return nil, apperr.InvalidRole("unknown role")
	}
	if _, err := s.CheckPermission(ctx, actorID, circleID, model.OpUpdateRole); err != nil {
		return nil, err
	}
	target, err := s.memberships.GetMembership(ctx, circleID, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return target, nil
	}

	if newRole == model.RoleOwner {
		// Only the current owner passes the OpUpdateRole check, so this is
		// a transfer from the actor to the target.
		if err := s.memberships.TransferOwnership(ctx, circleID, actorID, targetUserID); err != nil {
			return nil, err
		}
		target.Role = model.RoleOwner
		s.events.Emit(ctx, model.Event{
			Type:     model.EventOwnershipTransferred,
			CircleID: circleID,
			ActorID:  actorID,
			TargetID: targetUserID,
		})
		s.logger.Info().
			Str("circle_id", circleID).
			Str("from", actorID).
			Str("to", targetUserID).
			Msg("Transferred circle ownership")
		return target, nil
	}

	if err := s.memberships.UpdateMember(ctx, circleID, targetUserID, newRole, nil); err != nil {
		return nil, err
	}
	target.Role = newRole
	return target, nil
}

func (s *memberService) RemoveMember(ctx context.Context, actorID, circleID, targetUserID string) error {
	if actorID == targetUserID {
		_, err := s.Leave(ctx, actorID, circleID, "")
		return err
	}
	actor, err := s.CheckPermission(ctx, actorID, circleID, model.OpRemoveMember)
	if err != nil {
		return err
	}
	target, err := s.memberships.GetMembership(ctx, circleID, targetUserID)
	if err != nil {
		return err
	}
	if !actor.Role.AtLeast(target.Role) {
		return apperr.PermissionDenied("cannot remove a member of higher role")
	}

	if _, err := s.memberships.RemoveMember(ctx, circleID, targetUserID); err != nil {
		return err
	}
	s.events.Emit(ctx, model.Event{
		Type:     model.EventMemberRemoved,
		CircleID: circleID,
		ActorID:  actorID,
		TargetID: targetUserID,
	})
	return nil
}

func (s *memberService) Leave(ctx context.Context, actorID, circleID, successorID string) (bool, error) {
	m, err := s.memberships.GetMembership(ctx, circleID, actorID)
	if err != nil {
		return false, err
	}

	if m.Role == model.RoleOwner && successorID != "" {
		if successorID == actorID {
			return false, apperr.Validation("successor must be a different member")
		}
		if err := s.memberships.LeaveWithTransfer(ctx, circleID, actorID, successorID); err != nil {
			return false, err
		}
		s.events.Emit(ctx, model.Event{
			Type:     model.EventOwnershipTransferred,
			CircleID: circleID,
			ActorID:  actorID,
			TargetID: successorID,
		})
		s.events.Emit(ctx, model.Event{
			Type:     model.EventMemberRemoved,
			CircleID: circleID,
			ActorID:  actorID,
			TargetID: actorID,
		})
		return false, nil
	}

	circleDeleted, err := s.memberships.RemoveMember(ctx, circleID, actorID)
	if err != nil {
		return false, err
	}
	s.events.Emit(ctx, model.Event{
		Type:     model.EventMemberRemoved,
		CircleID: circleID,
		ActorID:  actorID,
		TargetID: actorID,
	})
	if circleDeleted {
		s.events.Emit(ctx, model.Event{
			Type:     model.EventCircleDeleted,
			CircleID: circleID,
			ActorID:  actorID,
		})
		s.logger.Info().
			Str("circle_id", circleID).
			Str("user_id", actorID).
			Msg("Deleted circle after sole owner left")
	}
	return circleDeleted, nil
}
