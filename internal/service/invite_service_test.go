package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"app/internal/apperr"
	"app/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInviteDefaults(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	inv, err := f.invites.CreateInvite(ctx, "owner", circleID, 0, 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultInviteMaxUses, inv.MaxUses)
	assert.Equal(t, DefaultInviteMaxUses, inv.UsesRemaining)
	assert.Equal(t, model.RoleMember, inv.AssignedRole)
	assert.Equal(t, model.InviteActive, inv.State)
	assert.Len(t, inv.Token, 12)
	assert.WithinDuration(t, time.Now().Add(DefaultInviteTTL), inv.ExpiresAt, time.Minute)
}

func TestCreateInvitePermissions(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	_, err := f.invites.CreateInvite(ctx, "member", circleID, 1, time.Hour, model.RoleMember, "")
	assert.True(t, apperr.IsCode(err, apperr.CodePermissionDenied))

	_, err = f.invites.CreateInvite(ctx, "admin", circleID, 1, time.Hour, model.RoleOwner, "")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidRole))

	inv, err := f.invites.CreateInvite(ctx, "admin", circleID, 5, time.Hour, model.RoleAdmin, "team")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, inv.AssignedRole)
	assert.Equal(t, 5, inv.MaxUses)
}

func TestValidateInviteStates(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	_, err := f.invites.Validate(ctx, "NOSUCHTOKEN1")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	inv, err := f.invites.CreateInvite(ctx, "owner", circleID, 1, time.Hour, model.RoleMember, "")
	require.NoError(t, err)
	_, err = f.invites.Validate(ctx, inv.Token)
	assert.NoError(t, err)

	// Expired invites fail even while still marked active.
	f.store.mu.Lock()
	f.store.invites[inv.Token].ExpiresAt = time.Now().Add(-time.Minute)
	f.store.mu.Unlock()
	_, err = f.invites.Validate(ctx, inv.Token)
	assert.True(t, apperr.IsCode(err, apperr.CodeInviteExpired))

	// Revocation takes precedence over expiry.
	require.NoError(t, f.invites.Revoke(ctx, "owner", inv.Token))
	_, err = f.invites.Validate(ctx, inv.Token)
	assert.True(t, apperr.IsCode(err, apperr.CodeInviteRevoked))
}

func TestRevokeInviteRules(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	inv, err := f.invites.CreateInvite(ctx, "owner", circleID, 1, time.Hour, model.RoleMember, "")
	require.NoError(t, err)

	err = f.invites.Revoke(ctx, "member", inv.Token)
	assert.True(t, apperr.IsCode(err, apperr.CodePermissionDenied))

	require.NoError(t, f.invites.Revoke(ctx, "admin", inv.Token))
	// Revoking again is a no-op, not an error.
	require.NoError(t, f.invites.Revoke(ctx, "admin", inv.Token))

	f.seedUser("bob", model.TierFree)
	_, err = f.circles.JoinViaInvite(ctx, "bob", inv.Token)
	assert.True(t, apperr.IsCode(err, apperr.CodeInviteRevoked))
}

func TestListCircleInvites(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.invites.CreateInvite(ctx, "owner", circleID, 1, time.Hour, model.RoleMember, "")
		require.NoError(t, err)
	}

	invites, err := f.invites.ListCircleInvites(ctx, "admin", circleID)
	require.NoError(t, err)
	assert.Len(t, invites, 3)

	_, err = f.invites.ListCircleInvites(ctx, "member", circleID)
	assert.True(t, apperr.IsCode(err, apperr.CodePermissionDenied))
}

func TestInviteConsumedAtMostMaxUses(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	const maxUses = 3
	inv, err := f.invites.CreateInvite(ctx, "owner", circleID, maxUses, time.Hour, model.RoleMember, "")
	require.NoError(t, err)

	const joiners = 10
	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		userID := fmt.Sprintf("joiner%d", i)
		f.seedUser(userID, model.TierFree)
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = f.circles.JoinViaInvite(ctx, userID, inv.Token)
		}(i, userID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperr.IsCode(err, apperr.CodeInviteExhausted))
		}
	}
	assert.Equal(t, maxUses, succeeded, "invite with maxUses=%d consumed more than %d times", maxUses, maxUses)

	got, err := f.invites.Validate(ctx, inv.Token)
	assert.Nil(t, got)
	assert.True(t, apperr.IsCode(err, apperr.CodeInviteExhausted))
}

func TestExpireStaleSweep(t *testing.T) {
	f, circleID := setupCircle(t)
	ctx := context.Background()

	fresh, err := f.invites.CreateInvite(ctx, "owner", circleID, 1, time.Hour, model.RoleMember, "")
	require.NoError(t, err)
	stale, err := f.invites.CreateInvite(ctx, "owner", circleID, 1, time.Hour, model.RoleMember, "")
	require.NoError(t, err)

	f.store.mu.Lock()
	f.store.invites[stale.Token].ExpiresAt = time.Now().Add(-time.Minute)
	f.store.mu.Unlock()

	repo := &fakeInviteRepo{s: f.store}
	expired, err := repo.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	invites, err := f.invites.ListCircleInvites(ctx, "owner", circleID)
	require.NoError(t, err)
	states := map[string]model.InviteState{}
	for _, inv := range invites {
		states[inv.Token] = inv.State
	}
	assert.Equal(t, model.InviteActive, states[fresh.Token])
	assert.Equal(t, model.InviteExpired, states[stale.Token])
}
