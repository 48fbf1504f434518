package handler

import (
	"log"
	"net/http"
	"strconv"

	"socialcircle/internal/httputil"
	"socialcircle/internal/service"
	"socialcircle/internal/transport/http/middleware"
)

// FeedHandler serves the paginated home feed.
type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// GetFeed returns one feed page. The page query param is 1-based and
// defaults to 1; a malformed value is a 400.
// GET /feed?page=N
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			httputil.WriteBadRequest(w, "Page must be a positive integer")
			return
		}
		page = parsed
	}

	feed, err := h.feedService.GetFeed(r.Context(), userID, page)
	if err != nil {
		log.Printf("[ERROR] GetFeed handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
