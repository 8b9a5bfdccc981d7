package router

import (
	"context"
	"net/http"
	"strings"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Open the connection pool
	dsn := cfg.DSN()
	// In a development environment, we want to ensure that SSL is disabled
	// for local testing. In production, the connection string should carry
	// the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}
	pool, err := repository.NewPool(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize the event sink. Without a GCP project events are dropped.
	var events service.EventSink = service.NopEventSink{}
	if cfg.GCPProjectID != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			pool.Close()
			return nil, nil, err
		}
		events = service.NewPubSubEventSink(publisher, cfg.EventsTopic, logger)
	}

	// 4. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	circleRepo := repository.NewCircleRepo(pool)
	membershipRepo := repository.NewMembershipRepo(pool)
	inviteRepo := repository.NewInviteRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)

	subSvc := service.NewSubscriptionService(userRepo, subRepo, circleRepo, logger)
	userSvc := service.NewUserService(userRepo, subRepo, subSvc, logger)
	memberSvc := service.NewMemberService(membershipRepo, userRepo, events, logger)
	inviteSvc := service.NewInviteService(inviteRepo, memberSvc, events, logger)
	circleSvc := service.NewCircleService(circleRepo, inviteRepo, usageRepo, memberSvc, subSvc, events, logger)

	userHandler := handler.NewUserHandler(userSvc, validate, logger)
	circleHandler := handler.NewCircleHandler(circleSvc, validate, logger)
	memberHandler := handler.NewMemberHandler(memberSvc, validate, logger)
	inviteHandler := handler.NewInviteHandler(inviteSvc, validate, logger)

	// 5. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// 6. Create ServeMux router
	apiV1Mux := http.NewServeMux()
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	circleHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	memberHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	inviteHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// 7. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), pool, nil
}
