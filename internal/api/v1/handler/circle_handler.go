package handler

import (
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CircleHandler handles circle lifecycle endpoints.
type CircleHandler struct {
	baseHandler
	circleSvc service.CircleService
}

// NewCircleHandler creates a new CircleHandler.
func NewCircleHandler(circleSvc service.CircleService, validate *validator.Validate, logger zerolog.Logger) *CircleHandler {
	return &CircleHandler{
		baseHandler: baseHandler{validate: validate, logger: logger},
		circleSvc:   circleSvc,
	}
}

// RegisterRoutes mounts circle routes.
func (h *CircleHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /circles", authMw(http.HandlerFunc(h.createCircle)))
	mux.Handle("GET /circles", authMw(http.HandlerFunc(h.listCircles)))
	mux.Handle("GET /circles/{circleId}", authMw(http.HandlerFunc(h.getCircle)))
	mux.Handle("PATCH /circles/{circleId}", authMw(http.HandlerFunc(h.updateCircle)))
	mux.Handle("DELETE /circles/{circleId}", authMw(http.HandlerFunc(h.deleteCircle)))
	mux.Handle("GET /circles/{circleId}/stats", authMw(http.HandlerFunc(h.getStats)))
	mux.Handle("POST /invites/{token}/join", authMw(http.HandlerFunc(h.joinViaInvite)))
}

// createCircle godoc
// @Summary Create a circle
// @Description Creates a circle owned by the authenticated user, counted against their circle quota.
// @Tags circles
// @Accept json
// @Produce json
// @Param circle body dto.CircleCreateRequest true "Circle creation request"
// @Success 201 {object} dto.CircleResponse
// @Failure 400 {object} handler.errorBody "Invalid payload"
// @Failure 422 {object} handler.errorBody "Circle quota exceeded"
// @Router /circles [post]
func (h *CircleHandler) createCircle(w http.ResponseWriter, r *http.Request) {
	var req dto.CircleCreateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	circle, err := h.circleSvc.CreateCircle(r.Context(), middleware.UserID(r.Context()), service.CreateCircleInput{
		Type:          model.CircleType(req.Type),
		Name:          req.Name,
		Description:   req.Description,
		CoverPhotoURL: req.CoverPhotoURL,
		Privacy:       model.CirclePrivacy(req.Privacy),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewCircleResponse(circle))
}

// listCircles godoc
// @Summary List the caller's circles
// @Tags circles
// @Produce json
// @Success 200 {array} dto.CircleResponse
// @Router /circles [get]
func (h *CircleHandler) listCircles(w http.ResponseWriter, r *http.Request) {
	circles, err := h.circleSvc.ListCircles(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]dto.CircleResponse, 0, len(circles))
	for i := range circles {
		resp = append(resp, dto.NewCircleResponse(&circles[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getCircle godoc
// @Summary Get a circle
// @Tags circles
// @Produce json
// @Param circleId path string true "Circle ID"
// @Success 200 {object} dto.CircleResponse
// @Failure 403 {object} handler.errorBody "Not a member"
// @Failure 404 {object} handler.errorBody "Circle not found"
// @Router /circles/{circleId} [get]
func (h *CircleHandler) getCircle(w http.ResponseWriter, r *http.Request) {
	circle, err := h.circleSvc.GetCircle(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCircleResponse(circle))
}

// updateCircle godoc
// @Summary Update a circle
// @Description Partially updates circle attributes. Requires admin or owner.
// @Tags circles
// @Accept json
// @Produce json
// @Param circleId path string true "Circle ID"
// @Param circle body dto.CircleUpdateRequest true "Fields to update"
// @Success 200 {object} dto.CircleResponse
// @Failure 403 {object} handler.errorBody "Insufficient role"
// @Failure 404 {object} handler.errorBody "Circle not found"
// @Router /circles/{circleId} [patch]
func (h *CircleHandler) updateCircle(w http.ResponseWriter, r *http.Request) {
	var req dto.CircleUpdateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	in := service.UpdateCircleInput{
		Name:          req.Name,
		Description:   req.Description,
		CoverPhotoURL: req.CoverPhotoURL,
	}
	if req.Privacy != nil {
		privacy := model.CirclePrivacy(*req.Privacy)
		in.Privacy = &privacy
	}
	circle, err := h.circleSvc.UpdateCircle(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCircleResponse(circle))
}

// deleteCircle godoc
// @Summary Delete a circle
// @Description Deletes the circle with all memberships and invites. Owner only.
// @Tags circles
// @Param circleId path string true "Circle ID"
// @Success 204 {string} string "No content"
// @Failure 403 {object} handler.errorBody "Not the owner"
// @Failure 404 {object} handler.errorBody "Circle not found"
// @Router /circles/{circleId} [delete]
func (h *CircleHandler) deleteCircle(w http.ResponseWriter, r *http.Request) {
	if err := h.circleSvc.DeleteCircle(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getStats godoc
// @Summary Get circle stats
// @Tags circles
// @Produce json
// @Param circleId path string true "Circle ID"
// @Success 200 {object} dto.CircleStatsResponse
// @Failure 403 {object} handler.errorBody "Not a member"
// @Router /circles/{circleId}/stats [get]
func (h *CircleHandler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.circleSvc.Stats(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CircleStatsResponse{
		MemberCount: stats.MemberCount,
		PhotoCount:  stats.PhotoCount,
		StoryCount:  stats.StoryCount,
	})
}

// joinViaInvite godoc
// @Summary Join a circle via invite token
// @Description Consumes one use of the invite and adds the caller with the assigned role.
// @Tags invites
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} dto.CircleResponse
// @Failure 404 {object} handler.errorBody "Unknown token"
// @Failure 409 {object} handler.errorBody "Already a member"
// @Failure 410 {object} handler.errorBody "Invite expired, exhausted, or revoked"
// @Router /invites/{token}/join [post]
func (h *CircleHandler) joinViaInvite(w http.ResponseWriter, r *http.Request) {
	circle, err := h.circleSvc.JoinViaInvite(r.Context(), middleware.UserID(r.Context()), r.PathValue("token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCircleResponse(circle))
}
