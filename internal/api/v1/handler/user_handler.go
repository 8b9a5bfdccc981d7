package handler

import (
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler handles user provisioning and profile endpoints.
type UserHandler struct {
	baseHandler
	userSvc service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: baseHandler{validate: validate, logger: logger},
		userSvc:     userSvc,
	}
}

// RegisterRoutes mounts user routes.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /users/me", authMw(http.HandlerFunc(h.ensureUser)))
	mux.Handle("GET /users/me", authMw(http.HandlerFunc(h.getProfile)))
}

// ensureUser godoc
// @Summary Provision the authenticated user
// @Description Upserts the user record from token claims and ensures a free-tier subscription exists. Idempotent.
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Router /users/me [post]
func (h *UserHandler) ensureUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	u, err := h.userSvc.EnsureUser(r.Context(), claims.Subject, claims.Name, claims.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// getProfile godoc
// @Summary Get the authenticated user's profile
// @Description Returns the user record with effective tier, limits, and circle usage.
// @Tags users
// @Produce json
// @Success 200 {object} dto.ProfileResponse
// @Failure 404 {object} handler.errorBody "User not provisioned"
// @Router /users/me [get]
func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	u, usage, err := h.userSvc.GetProfile(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{
		User:  dto.NewUserResponse(u),
		Usage: dto.NewUsageResponse(usage),
	})
}
