package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"app/internal/apperr"
	"app/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the postgres repositories. A
// single mutex serializes every operation, matching the atomicity the real
// repositories get from serializable transactions.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	subs        map[string]*model.Subscription
	circles     map[string]*model.Circle
	memberships map[string]map[string]*model.CircleMembership
	invites     map[string]*model.Invite
	usage       map[string]*model.CircleStats
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]*model.User{},
		subs:        map[string]*model.Subscription{},
		circles:     map[string]*model.Circle{},
		memberships: map[string]map[string]*model.CircleMembership{},
		invites:     map[string]*model.Invite{},
		usage:       map[string]*model.CircleStats{},
	}
}

func (s *fakeStore) countOwnedLocked(userID string) int {
	owned := 0
	for _, members := range s.memberships {
		if m, ok := members[userID]; ok && m.Role == model.RoleOwner {
			owned++
		}
	}
	return owned
}

func (s *fakeStore) deleteCircleLocked(circleID string) {
	delete(s.circles, circleID)
	delete(s.memberships, circleID)
	delete(s.usage, circleID)
	for token, inv := range s.invites {
		if inv.CircleID == circleID {
			delete(s.invites, token)
		}
	}
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Upsert(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *u
	if existing, ok := r.s.users[u.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	r.s.users[u.ID] = &cp
	return nil
}

type fakeSubscriptionRepo struct{ s *fakeStore }

func (r *fakeSubscriptionRepo) GetSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[userID]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (r *fakeSubscriptionRepo) EnsureFree(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subs[userID]; !ok {
		r.s.subs[userID] = &model.Subscription{
			UserID: userID,
			Tier:   model.TierFree,
			Status: model.SubscriptionActive,
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, sub *model.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sub
	r.s.subs[sub.UserID] = &cp
	return nil
}

type fakeCircleRepo struct{ s *fakeStore }

func (r *fakeCircleRepo) CreateCircleWithOwner(_ context.Context, c *model.Circle, owner *model.CircleMembership, maxCircles int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	owned := r.s.countOwnedLocked(owner.UserID)
	if !model.WithinLimit(maxCircles, owned, 1) {
		return apperr.QuotaExceeded(model.ResourceCircle, maxCircles, owned)
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	r.s.circles[c.ID] = &cp

	owner.CircleID = c.ID
	owner.Role = model.RoleOwner
	owner.JoinedAt = now
	mcp := *owner
	r.s.memberships[c.ID] = map[string]*model.CircleMembership{owner.UserID: &mcp}
	r.s.usage[c.ID] = &model.CircleStats{}
	return nil
}

func (r *fakeCircleRepo) GetCircle(_ context.Context, circleID string) (*model.Circle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.circles[circleID]
	if !ok {
		return nil, apperr.NotFound("circle")
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCircleRepo) ListUserCircles(_ context.Context, userID string) ([]model.Circle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	circles := []model.Circle{}
	for id, members := range r.s.memberships {
		if _, ok := members[userID]; ok {
			if c, found := r.s.circles[id]; found {
				circles = append(circles, *c)
			}
		}
	}
	return circles, nil
}

func (r *fakeCircleRepo) UpdateCircle(_ context.Context, c *model.Circle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.circles[c.ID]; !ok {
		return apperr.NotFound("circle")
	}
	c.UpdatedAt = time.Now()
	cp := *c
	r.s.circles[c.ID] = &cp
	return nil
}

func (r *fakeCircleRepo) DeleteCircleCascade(_ context.Context, circleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.circles[circleID]; !ok {
		return apperr.NotFound("circle")
	}
	r.s.deleteCircleLocked(circleID)
	return nil
}

func (r *fakeCircleRepo) CountOwnedCircles(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countOwnedLocked(userID), nil
}

type fakeMembershipRepo struct{ s *fakeStore }

func (r *fakeMembershipRepo) GetMembership(_ context.Context, circleID, userID string) (*model.CircleMembership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[circleID][userID]
	if !ok {
		return nil, apperr.NotFound("membership")
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembershipRepo) GetOwner(_ context.Context, circleID string) (*model.CircleMembership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships[circleID] {
		if m.Role == model.RoleOwner {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("circle")
}

func (r *fakeMembershipRepo) ListMembers(_ context.Context, circleID string) ([]model.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := []model.Member{}
	for _, m := range r.s.memberships[circleID] {
		entry := model.Member{
			UserID:      m.UserID,
			Role:        m.Role,
			CustomLabel: m.CustomLabel,
			JoinedAt:    m.JoinedAt,
		}
		if u, ok := r.s.users[m.UserID]; ok {
			entry.Name = u.Name
			entry.Email = u.Email
		}
		members = append(members, entry)
	}
	return members, nil
}

func (r *fakeMembershipRepo) AddMember(_ context.Context, m *model.CircleMembership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members, ok := r.s.memberships[m.CircleID]
	if !ok {
		return apperr.NotFound("circle")
	}
	if _, exists := members[m.UserID]; exists {
		return apperr.Conflict("user is already a member of this circle")
	}
	m.JoinedAt = time.Now()
	cp := *m
	members[m.UserID] = &cp
	return nil
}

func (r *fakeMembershipRepo) UpdateMember(_ context.Context, circleID, userID string, role model.Role, label *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[circleID][userID]
	if !ok {
		return apperr.NotFound("membership")
	}
	if m.Role == model.RoleOwner && role != model.RoleOwner {
		return apperr.OwnershipConflict("cannot demote the owner without promoting a successor")
	}
	m.Role = role
	if label != nil {
		m.CustomLabel = *label
	}
	return nil
}

func (r *fakeMembershipRepo) TransferOwnership(_ context.Context, circleID, fromUserID, toUserID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.memberships[circleID]
	to, ok := members[toUserID]
	if !ok {
		return apperr.NotFound("membership")
	}
	from, ok := members[fromUserID]
	if !ok || from.Role != model.RoleOwner {
		return apperr.Conflict("ownership changed concurrently, retry with refreshed state")
	}
	from.Role = model.RoleAdmin
	to.Role = model.RoleOwner
	return nil
}

func (r *fakeMembershipRepo) RemoveMember(_ context.Context, circleID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.memberships[circleID]
	m, ok := members[userID]
	if !ok {
		return false, apperr.NotFound("membership")
	}
	if m.Role == model.RoleOwner {
		if len(members) > 1 {
			return false, apperr.OwnershipConflict("transfer ownership before leaving the circle")
		}
		r.s.deleteCircleLocked(circleID)
		return true, nil
	}
	delete(members, userID)
	return false, nil
}

func (r *fakeMembershipRepo) LeaveWithTransfer(_ context.Context, circleID, ownerID, successorID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.memberships[circleID]
	successor, ok := members[successorID]
	if !ok {
		return apperr.NotFound("membership")
	}
	owner, ok := members[ownerID]
	if !ok || owner.Role != model.RoleOwner {
		return apperr.Conflict("ownership changed concurrently, retry with refreshed state")
	}
	delete(members, ownerID)
	successor.Role = model.RoleOwner
	return nil
}

type fakeInviteRepo struct{ s *fakeStore }

func (r *fakeInviteRepo) Create(_ context.Context, inv *model.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.invites[inv.Token]; exists {
		return apperr.Conflict("invite token collision")
	}
	inv.State = model.InviteActive
	inv.CreatedAt = time.Now()
	cp := *inv
	r.s.invites[inv.Token] = &cp
	return nil
}

func (r *fakeInviteRepo) GetByToken(_ context.Context, token string) (*model.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[token]
	if !ok {
		return nil, apperr.NotFound("invite")
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInviteRepo) ListByCircle(_ context.Context, circleID string) ([]model.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	invites := []model.Invite{}
	for _, inv := range r.s.invites {
		if inv.CircleID == circleID {
			invites = append(invites, *inv)
		}
	}
	return invites, nil
}

func (r *fakeInviteRepo) ConsumeAndJoin(_ context.Context, token, userID string) (*model.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[token]
	if !ok {
		return nil, apperr.NotFound("invite")
	}
	switch {
	case inv.State == model.InviteRevoked:
		return nil, apperr.InviteRevoked()
	case time.Now().After(inv.ExpiresAt):
		return nil, apperr.InviteExpired()
	case inv.UsesRemaining <= 0 || inv.State == model.InviteExhausted:
		return nil, apperr.InviteExhausted()
	}
	members, ok := r.s.memberships[inv.CircleID]
	if !ok {
		return nil, apperr.NotFound("circle")
	}
	if _, exists := members[userID]; exists {
		return nil, apperr.Conflict("user is already a member of this circle")
	}
	members[userID] = &model.CircleMembership{
		CircleID:             inv.CircleID,
		UserID:               userID,
		Role:                 inv.AssignedRole,
		CustomLabel:          inv.AssignedLabel,
		InvitedBy:            inv.CreatedBy,
		NotificationsEnabled: true,
		JoinedAt:             time.Now(),
	}
	inv.UsesRemaining--
	if inv.UsesRemaining <= 0 {
		inv.State = model.InviteExhausted
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInviteRepo) Revoke(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[token]
	if !ok {
		return apperr.NotFound("invite")
	}
	inv.State = model.InviteRevoked
	return nil
}

func (r *fakeInviteRepo) ExpireStale(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var expired int64
	now := time.Now()
	for _, inv := range r.s.invites {
		if inv.State == model.InviteActive && now.After(inv.ExpiresAt) {
			inv.State = model.InviteExpired
			expired++
		}
	}
	return expired, nil
}

type fakeUsageRepo struct{ s *fakeStore }

func (r *fakeUsageRepo) Reserve(_ context.Context, circleID string, kind model.ResourceKind, amount, limit int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats, ok := r.s.usage[circleID]
	if !ok {
		return 0, apperr.NotFound("circle")
	}
	current := stats.PhotoCount
	if kind == model.ResourceStory {
		current = stats.StoryCount
	}
	if !model.WithinLimit(limit, current, amount) {
		return 0, apperr.QuotaExceeded(kind, limit, current)
	}
	current += amount
	if kind == model.ResourceStory {
		stats.StoryCount = current
	} else {
		stats.PhotoCount = current
	}
	return current, nil
}

func (r *fakeUsageRepo) Release(_ context.Context, circleID string, kind model.ResourceKind, amount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats, ok := r.s.usage[circleID]
	if !ok {
		return nil
	}
	if kind == model.ResourceStory {
		stats.StoryCount = max(stats.StoryCount-amount, 0)
	} else {
		stats.PhotoCount = max(stats.PhotoCount-amount, 0)
	}
	return nil
}

func (r *fakeUsageRepo) Stats(_ context.Context, circleID string) (model.CircleStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats, ok := r.s.usage[circleID]
	if !ok {
		return model.CircleStats{}, apperr.NotFound("circle")
	}
	return model.CircleStats{
		MemberCount: len(r.s.memberships[circleID]),
		PhotoCount:  stats.PhotoCount,
		StoryCount:  stats.StoryCount,
	}, nil
}

// captureSink records emitted events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *captureSink) Emit(_ context.Context, ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// fixture wires every service against a shared fake store.
type fixture struct {
	store   *fakeStore
	events  *captureSink
	users   UserService
	subs    SubscriptionService
	circles CircleService
	members MemberService
	invites InviteService
	quota   QuotaService
}

func newFixture() *fixture {
	store := newFakeStore()
	events := &captureSink{}
	logger := zerolog.Nop()

	userRepo := &fakeUserRepo{s: store}
	subRepo := &fakeSubscriptionRepo{s: store}
	circleRepo := &fakeCircleRepo{s: store}
	membershipRepo := &fakeMembershipRepo{s: store}
	inviteRepo := &fakeInviteRepo{s: store}
	usageRepo := &fakeUsageRepo{s: store}

	subSvc := NewSubscriptionService(userRepo, subRepo, circleRepo, logger)
	memberSvc := NewMemberService(membershipRepo, userRepo, events, logger)
	return &fixture{
		store:   store,
		events:  events,
		users:   NewUserService(userRepo, subRepo, subSvc, logger),
		subs:    subSvc,
		circles: NewCircleService(circleRepo, inviteRepo, usageRepo, memberSvc, subSvc, events, logger),
		members: memberSvc,
		invites: NewInviteService(inviteRepo, memberSvc, events, logger),
		quota:   NewQuotaService(membershipRepo, subSvc, usageRepo, logger),
	}
}

// seedUser registers a user on the given tier.
func (f *fixture) seedUser(id string, tier model.Tier) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.users[id] = &model.User{ID: id, Name: "user " + id, Email: id + "@example.com"}
	f.store.subs[id] = &model.Subscription{UserID: id, Tier: tier, Status: model.SubscriptionActive}
}

// seedCircle creates a circle through the service, failing the test on error.
func (f *fixture) seedCircle(t *testing.T, ownerID string) *model.Circle {
	t.Helper()
	circle, err := f.circles.CreateCircle(context.Background(), ownerID, CreateCircleInput{
		Type: model.CircleTypeFamily,
		Name: "circle of " + ownerID,
	})
	require.NoError(t, err)
	return circle
}

func (c *captureSink) typesSeen() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]model.EventType, 0, len(c.events))
	for _, ev := range c.events {
		types = append(types, ev.Type)
	}
	return types
}
