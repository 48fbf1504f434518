package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"socialcircle/internal/httputil"
	"socialcircle/internal/model"
	"socialcircle/internal/service"
	"socialcircle/internal/transport/http/middleware"
)

// UserHandler serves profile and explore endpoints.
type UserHandler struct {
	userService   *service.UserService
	followService *service.FollowService
	postService   *service.PostService
	mediaService  *service.MediaService
}

func NewUserHandler(userService *service.UserService, followService *service.FollowService, postService *service.PostService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
		postService:   postService,
		mediaService:  mediaService,
	}
}

// UpdateProfile changes the caller's display name and optionally replaces
// the profile image via multipart upload.
// POST /profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	maxFormSize := model.MaxImageSizeBytes + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		httputil.WriteBadRequest(w, "Name is required")
		return
	}

	var image *string
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		upload, uploadErr := h.mediaService.UploadProfileImage(r.Context(), file, header)
		if uploadErr != nil {
			writeUploadError(w, uploadErr)
			return
		}
		image = &upload.URL
	} else if err != http.ErrMissingFile {
		httputil.WriteBadRequest(w, "Invalid image upload")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, name, image)
	if err != nil {
		log.Printf("[ERROR] UpdateProfile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.UpdateProfileResponse{
		Message: "Profile updated",
		User: &model.UserSummary{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Image: user.Image,
		},
	})
}

// GetProfile returns a user card with derived counts.
// GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	card, err := h.userService.GetCard(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] GetProfile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, card)
}

// GetStats returns the derived follower/following/post counts.
// GET /users/{id}/stats
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	stats, err := h.userService.GetStats(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetStats handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// GetUserPosts returns a user's posts with the viewer's like states.
// GET /users/{id}/posts
func (h *UserHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	userID := chi.URLParam(r, "id")

	posts, err := h.postService.ListByAuthor(r.Context(), viewerID, userID)
	if err != nil {
		log.Printf("[ERROR] GetUserPosts handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
	})
}

// GetFollowers lists the users following this user.
// GET /users/{id}/followers
func (h *UserHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	users, err := h.followService.Followers(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetFollowers handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get followers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// GetFollowing lists the users this user follows.
// GET /users/{id}/following
func (h *UserHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	users, err := h.followService.Following(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetFollowing handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get following")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// Explore lists all other users with derived counts.
// GET /explore
func (h *UserHandler) Explore(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	users, err := h.userService.Explore(r.Context(), viewerID)
	if err != nil {
		log.Printf("[ERROR] Explore handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load explore")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// writeUploadError maps media validation failures to 400s.
func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	default:
		httputil.WriteInternalError(w, "Failed to upload image")
	}
}
