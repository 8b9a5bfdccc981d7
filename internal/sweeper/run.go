// Package sweeper runs the background job that marks stale invites
// expired. Invite consumption re-checks expiry itself; the sweeper only
// keeps stored state and listings in line with the clock.
package sweeper

import (
	"context"
	"time"

	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Run loops until ctx is cancelled, sweeping on every interval tick.
// Sweep failures are logged and retried on the next tick.
func Run(ctx context.Context, logger zerolog.Logger, invites repository.InviteRepository, interval time.Duration) error {
	logger.Info().Str("interval", interval.String()).Msg("Starting invite sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		expired, err := invites.ExpireStale(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Invite sweep failed")
		} else if expired > 0 {
			logger.Info().Int64("expired", expired).Msg("Marked stale invites expired")
		}

		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down invite sweeper")
			return nil
		case <-ticker.C:
		}
	}
}
