package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/repository"
	"app/internal/sweeper"

	"github.com/joho/godotenv"
)

func main() {
	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize DB connection
	pool, err := repository.NewPool(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer pool.Close()
	logger.Info().Msg("Database connection established")

	invites := repository.NewInviteRepo(pool)
	interval := time.Duration(cfg.InviteSweepIntervalSec) * time.Second

	if err := sweeper.Run(ctx, logger, invites, interval); err != nil {
		logger.Fatal().Msgf("Invite sweeper failed: %v", err)
	}
	logger.Info().Msg("Invite sweeper stopped gracefully")
}
