package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/apperr"
	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepository defines methods for membership state. Mutations on
// one circle are serialized through row locks so the exactly-one-owner
// invariant holds at every commit.
type MembershipRepository interface {
	GetMembership(ctx context.Context, circleID, userID string) (*model.CircleMembership, error)
	GetOwner(ctx context.Context, circleID string) (*model.CircleMembership, error)
	ListMembers(ctx context.Context, circleID string) ([]model.Member, error)
	// AddMember inserts a membership. Returns apperr.Conflict when the user
	// is already a member.
	AddMember(ctx context.Context, m *model.CircleMembership) error
	// UpdateMember changes a member's role or label. It refuses to demote
	// the current owner (apperr.OwnershipConflict); promotions to owner go
	// through TransferOwnership.
	UpdateMember(ctx context.Context, circleID, userID string, role model.Role, label *string) error
	// TransferOwnership atomically demotes fromUserID to admin and promotes
	// toUserID to owner. Fails with apperr.Conflict when fromUserID no
	// longer owns the circle.
	TransferOwnership(ctx context.Context, circleID, fromUserID, toUserID string) error
	// RemoveMember deletes a membership. When the target is the owner and
	// other members remain it fails with apperr.OwnershipConflict; when the
	// owner is the last member the whole circle is deleted and
	// circleDeleted reports true.
	RemoveMember(ctx context.Context, circleID, userID string) (circleDeleted bool, err error)
	// LeaveWithTransfer removes the owner's membership after promoting the
	// named successor, all in one transaction.
	LeaveWithTransfer(ctx context.Context, circleID, ownerID, successorID string) error
}

type membershipRepo struct {
	pool *pgxpool.Pool
}

// NewMembershipRepo creates a new MembershipRepository.
func NewMembershipRepo(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepo{pool: pool}
}

const membershipColumns = `circle_id, user_id, role, custom_label, invited_by, notifications_enabled, joined_at`

func scanMembership(row pgx.Row) (*model.CircleMembership, error) {
	var m model.CircleMembership
	var label, invitedBy *string
	err := row.Scan(
		&m.CircleID,
		&m.UserID,
		&m.Role,
		&label,
		&invitedBy,
		&m.NotificationsEnabled,
		&m.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	if label != nil {
		m.CustomLabel = *label
	}
	if invitedBy != nil {
		m.InvitedBy = *invitedBy
	}
	return &m, nil
}

func (r *membershipRepo) GetMembership(ctx context.Context, circleID, userID string) (*model.CircleMembership, error) {
	q := `SELECT ` + membershipColumns + ` FROM circle_memberships WHERE circle_id = $1 AND user_id = $2`
	m, err := scanMembership(r.pool.QueryRow(ctx, q, circleID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("membership")
		}
		return nil, fmt.Errorf("fetch membership %s/%s: %w", circleID, userID, err)
	}
	return m, nil
}

func (r *membershipRepo) GetOwner(ctx context.Context, circleID string) (*model.CircleMembership, error) {
	q := `SELECT ` + membershipColumns + ` FROM circle_memberships WHERE circle_id = $1 AND role = 'owner'`
	m, err := scanMembership(r.pool.QueryRow(ctx, q, circleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("circle")
		}
		return nil, fmt.Errorf("fetch owner of circle %s: %w", circleID, err)
	}
	return m, nil
}

func (r *membershipRepo) ListMembers(ctx context.Context, circleID string) ([]model.Member, error) {
	const q = `
        SELECT m.user_id, u.name, u.email, m.role, COALESCE(m.custom_label, ''), m.joined_at
        FROM circle_memberships m
        JOIN users u ON u.id = m.user_id
        WHERE m.circle_id = $1
        ORDER BY m.joined_at ASC
    `
	rows, err := r.pool.Query(ctx, q, circleID)
	if err != nil {
		return nil, fmt.Errorf("listing members of circle %s: %w", circleID, err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Role, &m.CustomLabel, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}
	return members, nil
}

func (r *membershipRepo) AddMember(ctx context.Context, m *model.CircleMembership) error {
	const q = `
        INSERT INTO circle_memberships (circle_id, user_id, role, custom_label, invited_by, notifications_enabled, joined_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NOW())
        RETURNING joined_at
    `
	err := r.pool.QueryRow(ctx, q, m.CircleID, m.UserID, m.Role, m.CustomLabel, m.InvitedBy, m.NotificationsEnabled).
		Scan(&m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("user is already a member of this circle")
		}
		return fmt.Errorf("inserting membership %s/%s: %w", m.CircleID, m.UserID, err)
	}
	return nil
}

func (r *membershipRepo) UpdateMember(ctx context.Context, circleID, userID string, role model.Role, label *string) error {
	return inSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current model.Role
		const lockQ = `SELECT role FROM circle_memberships WHERE circle_id = $1 AND user_id = $2 FOR UPDATE`
		if err := tx.QueryRow(ctx, lockQ, circleID, userID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("membership")
			}
			return fmt.Errorf("locking membership %s/%s: %w", circleID, userID, err)
		}
		if current == model.RoleOwner && role != model.RoleOwner {
			return apperr.OwnershipConflict("cannot demote the owner without promoting a successor")
		}

		const updateQ = `
            UPDATE circle_memberships
            SET role = $3, custom_label = COALESCE($4, custom_label)
            WHERE circle_id = $1 AND user_id = $2
        `
		if _, err := tx.Exec(ctx, updateQ, circleID, userID, role, label); err != nil {
			return fmt.Errorf("updating membership %s/%s: %w", circleID, userID, err)
		}
		return nil
	})
}

func (r *membershipRepo) TransferOwnership(ctx context.Context, circleID, fromUserID, toUserID string) error {
	return inSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock both rows in a stable order to avoid deadlocks with
		// concurrent transfers on the same circle.
		const lockQ = `
            SELECT user_id, role
            FROM circle_memberships
            WHERE circle_id = $1 AND user_id IN ($2, $3)
            ORDER BY user_id
            FOR UPDATE
        `
		rows, err := tx.Query(ctx, lockQ, circleID, fromUserID, toUserID)
		if err != nil {
			return fmt.Errorf("locking memberships of circle %s: %w", circleID, err)
		}
		roles := map[string]model.Role{}
		for rows.Next() {
			var uid string
			var role model.Role
			if err := rows.Scan(&uid, &role); err != nil {
				rows.Close()
				return fmt.Errorf("scanning locked membership: %w", err)
			}
			roles[uid] = role
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating locked memberships: %w", err)
		}

		if _, ok := roles[toUserID]; !ok {
			return apperr.NotFound("membership")
		}
		if roles[fromUserID] != model.RoleOwner {
			return apperr.Conflict("ownership changed concurrently, retry with refreshed state")
		}

		// Demote first so the one-owner-per-circle index never sees two.
		const demoteQ = `UPDATE circle_memberships SET role = 'admin' WHERE circle_id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, demoteQ, circleID, fromUserID); err != nil {
			return fmt.Errorf("demoting owner of circle %s: %w", circleID, err)
		}
		const promoteQ = `UPDATE circle_memberships SET role = 'owner' WHERE circle_id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, promoteQ, circleID, toUserID); err != nil {
			return fmt.Errorf("promoting new owner of circle %s: %w", circleID, err)
		}
		return nil
	})
}

func (r *membershipRepo) RemoveMember(ctx context.Context, circleID, userID string) (bool, error) {
	var circleDeleted bool
	err := inSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		circleDeleted = false
		var role model.Role
		const lockQ = `SELECT role FROM circle_memberships WHERE circle_id = $1 AND user_id = $2 FOR UPDATE`
		if err := tx.QueryRow(ctx, lockQ, circleID, userID).Scan(&role); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("membership")
			}
			return fmt.Errorf("locking membership %s/%s: %w", circleID, userID, err)
		}

		if role == model.RoleOwner {
			var others int
			const countQ = `SELECT COUNT(*) FROM circle_memberships WHERE circle_id = $1 AND user_id <> $2`
			if err := tx.QueryRow(ctx, countQ, circleID, userID).Scan(&others); err != nil {
				return fmt.Errorf("counting remaining members of circle %s: %w", circleID, err)
			}
			if others > 0 {
				return apperr.OwnershipConflict("transfer ownership before leaving the circle")
			}
			// Last member is the owner: delete the circle, cascading
			// memberships, invites, and usage counters.
			const deleteCircleQ = `DELETE FROM circles WHERE id = $1`
			if _, err := tx.Exec(ctx, deleteCircleQ, circleID); err != nil {
				return fmt.Errorf("deleting circle %s: %w", circleID, err)
			}
			circleDeleted = true
			return nil
		}

		const deleteQ = `DELETE FROM circle_memberships WHERE circle_id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, deleteQ, circleID, userID); err != nil {
			return fmt.Errorf("deleting membership %s/%s: %w", circleID, userID, err)
		}
		return nil
	})
	return circleDeleted, err
}

func (r *membershipRepo) LeaveWithTransfer(ctx context.Context, circleID, ownerID, successorID string) error {
	return inSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		const lockQ = `
            SELECT user_id, role
            FROM circle_memberships
            WHERE circle_id = $1 AND user_id IN ($2, $3)
            ORDER BY user_id
            FOR UPDATE
        `
		rows, err := tx.Query(ctx, lockQ, circleID, ownerID, successorID)
		if err != nil {
			return fmt.Errorf("locking memberships of circle %s: %w", circleID, err)
		}
		roles := map[string]model.Role{}
		for rows.Next() {
			var uid string
			var role model.Role
			if err := rows.Scan(&uid, &role); err != nil {
				rows.Close()
				return fmt.Errorf("scanning locked membership: %w", err)
			}
			roles[uid] = role
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating locked memberships: %w", err)
		}

		if _, ok := roles[successorID]; !ok {
			return apperr.NotFound("membership")
		}
		if roles[ownerID] != model.RoleOwner {
			return apperr.Conflict("ownership changed concurrently, retry with refreshed state")
		}

		const deleteQ = `DELETE FROM circle_memberships WHERE circle_id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, deleteQ, circleID, ownerID); err != nil {
			return fmt.Errorf("deleting owner membership of circle %s: %w", circleID, err)
		}
		const promoteQ = `UPDATE circle_memberships SET role = 'owner' WHERE circle_id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, promoteQ, circleID, successorID); err != nil {
			return fmt.Errorf("promoting successor in circle %s: %w", circleID, err)
		}
		return nil
	})
}
