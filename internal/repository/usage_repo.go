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

// UsageRepository tracks per-circle resource counters for usage-based
// limits. The check-then-increment is a single conditional UPDATE, so two
// concurrent reservations can never jointly exceed the limit.
type UsageRepository interface {
	// Reserve atomically checks and increments the counter for kind.
	// Returns the new count, or apperr.QuotaExceeded when the reservation
	// would pass the limit. A limit of model.Unlimited never fails.
	Reserve(ctx context.Context, circleID string, kind model.ResourceKind, amount, limit int) (int, error)
	// Release decrements a previously committed reservation. It never
	// reports a quota error and clamps at zero.
	Release(ctx context.Context, circleID string, kind model.ResourceKind, amount int) error
	Stats(ctx context.Context, circleID string) (model.CircleStats, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func counterColumn(kind model.ResourceKind) (string, error) {
	switch kind {
	case model.ResourcePhoto:
		return "photo_count", nil
	case model.ResourceStory:
		return "story_count", nil
	}
	return "", fmt.Errorf("no circle counter for resource kind %q", kind)
}

func (r *usageRepo) Reserve(ctx context.Context, circleID string, kind model.ResourceKind, amount, limit int) (int, error) {
	col, err := counterColumn(kind)
	if err != nil {
		return 0, err
	}
	q := fmt.Sprintf(`
        UPDATE circle_usage
        SET %[1]s = %[1]s + $2
        WHERE circle_id = $1 AND ($3 = %[2]d OR %[1]s + $2 <= $3)
        RETURNING %[1]s
    `, col, model.Unlimited)

	var current int
	err = r.pool.QueryRow(ctx, q, circleID, amount, limit).Scan(&current)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("reserving %s for circle %s: %w", kind, circleID, err)
	}

	// Zero rows: either the circle is gone or the limit was hit.
	readQ := fmt.Sprintf(`SELECT %s FROM circle_usage WHERE circle_id = $1`, col)
	if err := r.pool.QueryRow(ctx, readQ, circleID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound("circle")
		}
		return 0, fmt.Errorf("reading %s usage for circle %s: %w", kind, circleID, err)
	}
	return 0, apperr.QuotaExceeded(kind, limit, current)
}

func (r *usageRepo) Release(ctx context.Context, circleID string, kind model.ResourceKind, amount int) error {
	col, err := counterColumn(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
        UPDATE circle_usage
        SET %[1]s = GREATEST(%[1]s - $2, 0)
        WHERE circle_id = $1
    `, col)
	if _, err := r.pool.Exec(ctx, q, circleID, amount); err != nil {
		return fmt.Errorf("releasing %s for circle %s: %w", kind, circleID, err)
	}
	return nil
}

func (r *usageRepo) Stats(ctx context.Context, circleID string) (model.CircleStats, error) {
	const q = `
        SELECT (SELECT COUNT(*) FROM circle_memberships WHERE circle_id = $1),
               u.photo_count,
               u.story_count
        FROM circle_usage u
        WHERE u.circle_id = $1
    `
	var stats model.CircleStats
	err := r.pool.QueryRow(ctx, q, circleID).Scan(&stats.MemberCount, &stats.PhotoCount, &stats.StoryCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CircleStats{}, apperr.NotFound("circle")
		}
		return model.CircleStats{}, fmt.Errorf("fetch usage stats for circle %s: %w", circleID, err)
	}
	return stats, nil
}
