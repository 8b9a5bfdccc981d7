package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/apperr"
	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InviteRepository defines methods for invite tokens.
type InviteRepository interface {
	// Create inserts a new invite. Returns apperr.Conflict on a token
	// collision so the caller can regenerate.
	Create(ctx context.Context, inv *model.Invite) error
	GetByToken(ctx context.Context, token string) (*model.Invite, error)
	ListByCircle(ctx context.Context, circleID string) ([]model.Invite, error)
	// ConsumeAndJoin re-validates the invite, inserts the membership, and
	// decrements uses_remaining in one transaction. An invite with
	// maxUses=k is consumed at most k times under any interleaving.
	ConsumeAndJoin(ctx context.Context, token, userID string) (*model.Invite, error)
	// Revoke marks the invite revoked. Idempotent.
	Revoke(ctx context.Context, token string) error
	// ExpireStale flips active invites past their expiry to expired and
	// returns how many were flipped. Consumption checks expiry themselves;
	// this only keeps listings accurate.
	ExpireStale(ctx context.Context) (int64, error)
}

type inviteRepo struct {
	pool *pgxpool.Pool
}

// NewInviteRepo creates a new InviteRepository.
func NewInviteRepo(pool *pgxpool.Pool) InviteRepository {
	return &inviteRepo{pool: pool}
}

const inviteColumns = `token, circle_id, created_by, assigned_role, COALESCE(assigned_label, ''), max_uses, uses_remaining, expires_at, state, created_at`

func scanInvite(row pgx.Row) (*model.Invite, error) {
	var inv model.Invite
	err := row.Scan(
		&inv.Token,
		&inv.CircleID,
		&inv.CreatedBy,
		&inv.AssignedRole,
		&inv.AssignedLabel,
		&inv.MaxUses,
		&inv.UsesRemaining,
		&inv.ExpiresAt,
		&inv.State,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inviteRepo) Create(ctx context.Context, inv *model.Invite) error {
	const q = `
        INSERT INTO invites (token, circle_id, created_by, assigned_role, assigned_label, max_uses, uses_remaining, expires_at, state, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, 'active', NOW())
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q,
		inv.Token, inv.CircleID, inv.CreatedBy, inv.AssignedRole, inv.AssignedLabel,
		inv.MaxUses, inv.UsesRemaining, inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("invite token collision")
		}
		return fmt.Errorf("inserting invite for circle %s: %w", inv.CircleID, err)
	}
	inv.State = model.InviteActive
	return nil
}

func (r *inviteRepo) GetByToken(ctx context.Context, token string) (*model.Invite, error) {
	q := `SELECT ` + inviteColumns + ` FROM invites WHERE token = $1`
	inv, err := scanInvite(r.pool.QueryRow(ctx, q, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("invite")
		}
		return nil, fmt.Errorf("fetch invite: %w", err)
	}
	return inv, nil
}

func (r *inviteRepo) ListByCircle(ctx context.Context, circleID string) ([]model.Invite, error) {
	q := `SELECT ` + inviteColumns + ` FROM invites WHERE circle_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, circleID)
	if err != nil {
		return nil, fmt.Errorf("listing invites for circle %s: %w", circleID, err)
	}
	defer rows.Close()

	invites := []model.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invite row: %w", err)
		}
		invites = append(invites, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invite rows: %w", err)
	}
	return invites, nil
}

func (r *inviteRepo) ConsumeAndJoin(ctx context.Context, token, userID string) (*model.Invite, error) {
	var consumed *model.Invite
	err := inSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		lockQ := `SELECT ` + inviteColumns + ` FROM invites WHERE token = $1 FOR UPDATE`
		inv, err := scanInvite(tx.QueryRow(ctx, lockQ, token))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("invite")
			}
			return fmt.Errorf("locking invite: %w", err)
		}

		switch {
		case inv.State == model.InviteRevoked:
			return apperr.InviteRevoked()
		case time.Now().After(inv.ExpiresAt):
			return apperr.InviteExpired()
		case inv.UsesRemaining <= 0 || inv.State == model.InviteExhausted:
			return apperr.InviteExhausted()
		}

		var alreadyMember bool
		const existsQ = `SELECT EXISTS(SELECT 1 FROM circle_memberships WHERE circle_id = $1 AND user_id = $2)`
		if err := tx.QueryRow(ctx, existsQ, inv.CircleID, userID).Scan(&alreadyMember); err != nil {
			return fmt.Errorf("checking existing membership: %w", err)
		}
		if alreadyMember {
			return apperr.Conflict("user is already a member of this circle")
		}

		const memberQ = `
            INSERT INTO circle_memberships (circle_id, user_id, role, custom_label, invited_by, notifications_enabled, joined_at)
            VALUES ($1, $2, $3, NULLIF($4, ''), $5, TRUE, NOW())
        `
		if _, err := tx.Exec(ctx, memberQ, inv.CircleID, userID, inv.AssignedRole, inv.AssignedLabel, inv.CreatedBy); err != nil {
			return fmt.Errorf("inserting membership via invite: %w", err)
		}

		// The guard on uses_remaining makes the decrement a compare-and-swap:
		// a concurrent consumer that drained the last use leaves zero rows.
		const consumeQ = `
            UPDATE invites
            SET uses_remaining = uses_remaining - 1,
                state = CASE WHEN uses_remaining - 1 <= 0 THEN 'exhausted' ELSE state END
            WHERE token = $1 AND uses_remaining > 0
            RETURNING uses_remaining, state
        `
		if err := tx.QueryRow(ctx, consumeQ, token).Scan(&inv.UsesRemaining, &inv.State); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.InviteExhausted()
			}
			return fmt.Errorf("consuming invite: %w", err)
		}
		consumed = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

func (r *inviteRepo) Revoke(ctx context.Context, token string) error {
	const q = `UPDATE invites SET state = 'revoked' WHERE token = $1`
	tag, err := r.pool.Exec(ctx, q, token)
	if err != nil {
		return fmt.Errorf("revoking invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invite")
	}
	return nil
}

func (r *inviteRepo) ExpireStale(ctx context.Context) (int64, error) {
	const q = `UPDATE invites SET state = 'expired' WHERE state = 'active' AND expires_at < NOW()`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("expiring stale invites: %w", err)
	}
	return tag.RowsAffected(), nil
}
