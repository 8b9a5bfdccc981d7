package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing subscription data.
// Subscription state is ground truth supplied by the billing system; the
// core only reads it, except for seeding the free tier on first touch.
type SubscriptionRepository interface {
	// GetSubscription returns the user's subscription, or nil when the user
	// has none.
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	// EnsureFree creates an active free-tier subscription for a new user if
	// none exists.
	EnsureFree(ctx context.Context, userID string) error
	Upsert(ctx context.Context, sub *model.Subscription) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	const q = `
        SELECT user_id, tier, status, current_period_start, current_period_end, created_at, updated_at
        FROM subscriptions
        WHERE user_id = $1
    `
	var sub model.Subscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&sub.UserID,
		&sub.Tier,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) EnsureFree(ctx context.Context, userID string) error {
	const q = `
        INSERT INTO subscriptions (user_id, tier, status, created_at, updated_at)
        VALUES ($1, 'free', 'active', NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("ensure free subscription for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	const q = `
        INSERT INTO subscriptions (user_id, tier, status, current_period_start, current_period_end, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET tier = EXCLUDED.tier,
            status = EXCLUDED.status,
            current_period_start = EXCLUDED.current_period_start,
            current_period_end = EXCLUDED.current_period_end,
            updated_at = NOW()
    `
	_, err := r.pool.Exec(ctx, q, sub.UserID, sub.Tier, sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}
