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

// MemberHandler handles membership endpoints.
type MemberHandler struct {
	baseHandler
	memberSvc service.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberSvc service.MemberService, validate *validator.Validate, logger zerolog.Logger) *MemberHandler {
	return &MemberHandler{
		baseHandler: baseHandler{validate: validate, logger: logger},
		memberSvc:   memberSvc,
	}
}

// RegisterRoutes mounts membership routes.
func (h *MemberHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /circles/{circleId}/members", authMw(http.HandlerFunc(h.listMembers)))
	mux.Handle("POST /circles/{circleId}/members", authMw(http.HandlerFunc(h.addMember)))
	mux.Handle("PATCH /circles/{circleId}/members/{userId}", authMw(http.HandlerFunc(h.updateRole)))
	mux.Handle("DELETE /circles/{circleId}/members/{userId}", authMw(http.HandlerFunc(h.removeMember)))
	mux.Handle("POST /circles/{circleId}/leave", authMw(http.HandlerFunc(h.leave)))
}

// listMembers godoc
// @Summary List circle members
// @Tags members
// @Produce json
// @Param circleId path string true "Circle ID"
// @Success 200 {array} dto.MemberResponse
// @Failure 403 {object} handler.errorBody "Not a member"
// @Router /circles/{circleId}/members [get]
func (h *MemberHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberSvc.ListMembers(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, dto.NewMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// addMember godoc
// @Summary Add a member directly
// @Description Adds an existing user to the circle. Requires admin or owner.
// @Tags members
// @Accept json
// @Produce json
// @Param circleId path string true "Circle ID"
// @Param member body dto.MemberAddRequest true "Member to add"
// @Success 201 {object} dto.MembershipResponse
// @Failure 400 {object} handler.errorBody "Invalid role"
// @Failure 403 {object} handler.errorBody "Insufficient role"
// @Failure 409 {object} handler.errorBody "Already a member"
// @Router /circles/{circleId}/members [post]
func (h *MemberHandler) addMember(w http.ResponseWriter, r *http.Request) {
	var req dto.MemberAddRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	m, err := h.memberSvc.AddMember(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"),
		req.UserID, model.Role(req.Role), req.CustomLabel)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewMembershipResponse(m))
}

// updateRole godoc
// @Summary Change a member's role
// @Description Owner only. Assigning owner transfers ownership: the caller is demoted to admin in the same transaction.
// @Tags members
// @Accept json
// @Produce json
// @Param circleId path string true "Circle ID"
// @Param userId path string true "Target user ID"
// @Param role body dto.RoleUpdateRequest true "New role"
// @Success 200 {object} dto.MembershipResponse
// @Failure 403 {object} handler.errorBody "Not the owner"
// @Failure 404 {object} handler.errorBody "Membership not found"
// @Failure 409 {object} handler.errorBody "Would leave the circle without an owner"
// @Router /circles/{circleId}/members/{userId} [patch]
func (h *MemberHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleUpdateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	m, err := h.memberSvc.UpdateRole(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"),
		r.PathValue("userId"), model.Role(req.Role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewMembershipResponse(m))
}

// removeMember godoc
// @Summary Remove a member
// @Description Removes another member. Admins can remove members and peer admins but not the owner.
// @Tags members
// @Param circleId path string true "Circle ID"
// @Param userId path string true "Target user ID"
// @Success 204 {string} string "No content"
// @Failure 403 {object} handler.errorBody "Insufficient role"
// @Failure 404 {object} handler.errorBody "Membership not found"
// @Router /circles/{circleId}/members/{userId} [delete]
func (h *MemberHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	err := h.memberSvc.RemoveMember(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"), r.PathValue("userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// leave godoc
// @Summary Leave a circle
// @Description The owner must name a successor unless they are the last member, in which case the circle is deleted.
// @Tags members
// @Accept json
// @Produce json
// @Param circleId path string true "Circle ID"
// @Param leave body dto.LeaveRequest false "Optional successor"
// @Success 200 {object} map[string]bool "circle_deleted flag"
// @Failure 404 {object} handler.errorBody "Membership not found"
// @Failure 409 {object} handler.errorBody "Successor required"
// @Router /circles/{circleId}/leave [post]
func (h *MemberHandler) leave(w http.ResponseWriter, r *http.Request) {
	var req dto.LeaveRequest
	if r.ContentLength > 0 && !h.decodeValid(w, r, &req) {
		return
	}
	circleDeleted, err := h.memberSvc.Leave(r.Context(), middleware.UserID(r.Context()), r.PathValue("circleId"), req.SuccessorID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"circle_deleted": circleDeleted})
}
