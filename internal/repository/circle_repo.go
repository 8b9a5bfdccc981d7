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

// CircleRepository defines methods for circle lifecycle state.
type CircleRepository interface {
	// CreateCircleWithOwner atomically checks the actor's circle quota,
	// inserts the circle, its owner membership, and its usage-counter row.
	// Returns apperr.QuotaExceeded when the owner is at maxCircles; no state
	// is created in that case.
	CreateCircleWithOwner(ctx context.Context, c *model.Circle, owner *model.CircleMembership, maxCircles int) error
	GetCircle(ctx context.Context, circleID string) (*model.Circle, error)
	ListUserCircles(ctx context.Context, userID string) ([]model.Circle, error)
	UpdateCircle(ctx context.Context, c *model.Circle) error
	// DeleteCircleCascade removes the circle together with its memberships,
	// invites, and usage counters in one atomic statement. Removing the
	// owner membership releases the owner's circle-count reservation.
	DeleteCircleCascade(ctx context.Context, circleID string) error
	CountOwnedCircles(ctx context.Context, userID string) (int, error)
}

type circleRepo struct {
	pool *pgxpool.Pool
}

// NewCircleRepo creates a new CircleRepository.
func NewCircleRepo(pool *pgxpool.Pool) CircleRepository {
	return &circleRepo{pool: pool}
}

func (r *circleRepo) CreateCircleWithOwner(ctx context.Context, c *model.Circle, owner *model.CircleMembership, maxCircles int) error {
	return inSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var owned int
		const countQ = `
            SELECT COUNT(*)
            FROM circle_memberships
            WHERE user_id = $1 AND role = 'owner'
        `
		if err := tx.QueryRow(ctx, countQ, owner.UserID).Scan(&owned); err != nil {
			return fmt.Errorf("counting circles owned by user %s: %w", owner.UserID, err)
		}
		if !model.WithinLimit(maxCircles, owned, 1) {
			return apperr.QuotaExceeded(model.ResourceCircle, maxCircles, owned)
		}

		const circleQ = `
            INSERT INTO circles (id, type, name, description, cover_photo_url, privacy, created_by, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
            RETURNING created_at, updated_at
        `
		err := tx.QueryRow(ctx, circleQ, c.ID, c.Type, c.Name, c.Description, c.CoverPhotoURL, c.Privacy, c.CreatedBy).
			Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting circle %s: %w", c.ID, err)
		}

		const memberQ = `
            INSERT INTO circle_memberships (circle_id, user_id, role, custom_label, invited_by, notifications_enabled, joined_at)
            VALUES ($1, $2, 'owner', $3, NULL, $4, NOW())
            RETURNING joined_at
        `
		err = tx.QueryRow(ctx, memberQ, c.ID, owner.UserID, owner.CustomLabel, owner.NotificationsEnabled).
			Scan(&owner.JoinedAt)
		if err != nil {
			return fmt.Errorf("inserting owner membership for circle %s: %w", c.ID, err)
		}
		owner.CircleID = c.ID
		owner.Role = model.RoleOwner

		const usageQ = `INSERT INTO circle_usage (circle_id, photo_count, story_count) VALUES ($1, 0, 0)`
		if _, err := tx.Exec(ctx, usageQ, c.ID); err != nil {
			return fmt.Errorf("inserting usage counters for circle %s: %w", c.ID, err)
		}
		return nil
	})
}

func (r *circleRepo) GetCircle(ctx context.Context, circleID string) (*model.Circle, error) {
	const q = `
        SELECT id, type, name, description, cover_photo_url, privacy, created_by, created_at, updated_at
        FROM circles
        WHERE id = $1
    `
	var c model.Circle
	err := r.pool.QueryRow(ctx, q, circleID).Scan(
		&c.ID,
		&c.Type,
		&c.Name,
		&c.Description,
		&c.CoverPhotoURL,
		&c.Privacy,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("circle")
		}
		return nil, fmt.Errorf("fetch circle %s: %w", circleID, err)
	}
	return &c, nil
}

func (r *circleRepo) ListUserCircles(ctx context.Context, userID string) ([]model.Circle, error) {
	const q = `
        SELECT c.id, c.type, c.name, c.description, c.cover_photo_url, c.privacy, c.created_by, c.created_at, c.updated_at
        FROM circles c
        JOIN circle_memberships m ON m.circle_id = c.id
        WHERE m.user_id = $1
        ORDER BY c.created_at DESC
    `
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing circles for user %s: %w", userID, err)
	}
	defer rows.Close()

	circles := []model.Circle{}
	for rows.Next() {
		var c model.Circle
		if err := rows.Scan(
			&c.ID,
			&c.Type,
			&c.Name,
			&c.Description,
			&c.CoverPhotoURL,
			&c.Privacy,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning circle row: %w", err)
		}
		circles = append(circles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating circle rows: %w", err)
	}
	return circles, nil
}

func (r *circleRepo) UpdateCircle(ctx context.Context, c *model.Circle) error {
	const q = `
        UPDATE circles
        SET name = $1, description = $2, cover_photo_url = $3, privacy = $4, updated_at = NOW()
        WHERE id = $5
        RETURNING updated_at
    `
	err := r.pool.QueryRow(ctx, q, c.Name, c.Description, c.CoverPhotoURL, c.Privacy, c.ID).
		Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("circle")
		}
		return fmt.Errorf("updating circle %s: %w", c.ID, err)
	}
	return nil
}

func (r *circleRepo) DeleteCircleCascade(ctx context.Context, circleID string) error {
	// Memberships, invites, and usage counters are removed by ON DELETE
	// CASCADE, so a single statement is the whole atomic unit.
	const q = `DELETE FROM circles WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, circleID)
	if err != nil {
		return fmt.Errorf("deleting circle %s: %w", circleID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("circle")
	}
	return nil
}

func (r *circleRepo) CountOwnedCircles(ctx context.Context, userID string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM circle_memberships
        WHERE user_id = $1 AND role = 'owner'
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting circles owned by user %s: %w", userID, err)
	}
	return count, nil
}
