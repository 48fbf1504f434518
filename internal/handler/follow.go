package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"socialcircle/internal/httputil"
	"socialcircle/internal/model"
	"socialcircle/internal/service"
	"socialcircle/internal/transport/http/middleware"
)

// FollowHandler serves follow-graph endpoints.
type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Toggle flips the caller's follow edge to the given user.
// POST /explore/follow
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	followerID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.ToggleFollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.UserID == "" {
		httputil.WriteBadRequest(w, "userId is required")
		return
	}

	resp, err := h.followService.Toggle(r.Context(), followerID, req.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] ToggleFollow handler: %v", err)
		httputil.WriteInternalError(w, "Failed to toggle follow")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Status reports whether the caller follows the given user.
// GET /explore/follow-status?userId=<id>
func (h *FollowHandler) Status(w http.ResponseWriter, r *http.Request) {
	followerID, _ := middleware.GetUserIDFromContext(r.Context())
	followeeID := r.URL.Query().Get("userId")
	if followeeID == "" {
		httputil.WriteBadRequest(w, "userId is required")
		return
	}

	resp, err := h.followService.Status(r.Context(), followerID, followeeID)
	if err != nil {
		log.Printf("[ERROR] FollowStatus handler: %v", err)
		httputil.WriteInternalError(w, "Failed to check follow status")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
