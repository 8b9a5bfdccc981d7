package handler

import (
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// InviteHandler handles invite token endpoints.
type InviteHandler struct {
	baseHandler
	inviteSvc service.InviteService
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(inviteSvc service.InviteService, validate *validator.Validate, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		baseHandler: baseHandler{validate: validate, logger: logger},
		inviteSvc:   inviteSvc,
	}
}

// RegisterRoutes mounts invite routes.
func (h *InviteHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /circles/{circleId}/invites", authMw(http.HandlerFunc(h.createInvite)))
	mux.Handle("GET /circles/{circleId}/invites", authMw(http.HandlerFunc(h.listInvites)))
	mux.Handle("GET /invites/{token}", authMw(http.HandlerFunc(h.validateInvite)))
	mux.Handle("DELETE /invites/{token}", authMw(http.HandlerFunc(h.revokeInvite)))
}

// createInvite godoc
// @Summary Create an invite
// @Description Mints an invite token for the circle. Requires admin or owner.
// @Tags invites
// @Accept json
// @Produce json
// @Param circleId path string true "Circle ID"
// @Param invite body dto.InviteCreateRequest true "Invite parameters"
// @Success 201 {object} dto.InviteResponse
// @Failure 400 {object} handler.errorBody "Invalid role"
// @Failure 403 {object} handler.errorBody "Insufficient role"
// @Router /circles/{circleId}/invites [post]
func (h *InviteHandler) createInvite(w http.ResponseWriter, r *http.Request) {
	var req dto.InviteCreateRequest
	if r.ContentLength > 0 && !h.decodeValid(w, r, &req) {
		return
	}
	inv, err := h.inviteSvc.CreateInvite(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"),
		req.MaxUses, time.Duration(req.ExpiresInHours)*time.Hour, model.Role(req.Role), req.Label)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewInviteResponse(inv))
}

// listInvites godoc
// @Summary List circle invites
// @Tags invites
// @Produce json
// @Param circleId path string true "Circle ID"
// @Success 200 {array} dto.InviteResponse
// @Failure 403 {object} handler.errorBody "Insufficient role"
// @Router /circles/{circleId}/invites [get]
func (h *InviteHandler) listInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.inviteSvc.ListCircleInvites(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		resp = append(resp, dto.NewInviteResponse(&invites[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// validateInvite godoc
// @Summary Validate an invite token
// @Description Checks whether the token can currently be consumed, without consuming it.
// @Tags invites
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} dto.InviteResponse
// @Failure 404 {object} handler.errorBody "Unknown token"
// @Failure 410 {object} handler.errorBody "Invite expired, exhausted, or revoked"
// @Router /invites/{token} [get]
func (h *InviteHandler) validateInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := h.inviteSvc.Validate(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewInviteResponse(inv))
}

// revokeInvite godoc
// @Summary Revoke an invite
// @Description Permanently invalidates the token. Requires admin or owner of the invite's circle. Idempotent.
// @Tags invites
// @Param token path string true "Invite token"
// @Success 204 {string} string "No content"
// @Failure 403 {object} handler.errorBody "Insufficient role"
// @Failure 404 {object} handler.errorBody "Unknown token"
// @Router /invites/{token} [delete]
func (h *InviteHandler) revokeInvite(w http.ResponseWriter, r *http.Request) {
	if err := h.inviteSvc.Revoke(r.Context(), middleware.UserID(r.Context()), r.PathValue("token")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
