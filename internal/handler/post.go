package handler

import (
	"encoding/json"
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

// PostHandler serves post, like, and comment endpoints.
type PostHandler struct {
	postService  *service.PostService
	mediaService *service.MediaService
}

func NewPostHandler(postService *service.PostService, mediaService *service.MediaService) *PostHandler {
	return &PostHandler{
		postService:  postService,
		mediaService: mediaService,
	}
}

// Create handles multipart post creation with an optional image.
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	content := r.FormValue("content")
	if strings.TrimSpace(content) == "" {
		httputil.WriteBadRequest(w, "Content is required")
		return
	}

	var title *string
	if t := strings.TrimSpace(r.FormValue("title")); t != "" {
		title = &t
	}

	var image *string
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		upload, uploadErr := h.mediaService.UploadPostImage(r.Context(), file, header)
		if uploadErr != nil {
			writeUploadError(w, uploadErr)
			return
		}
		image = &upload.URL
	} else if err != http.ErrMissingFile {
		httputil.WriteBadRequest(w, "Invalid image upload")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, title, content, image)
	if err != nil {
		if errors.Is(err, model.ErrContentRequired) {
			httputil.WriteBadRequest(w, "Content is required")
			return
		}
		log.Printf("[ERROR] CreatePost handler: %v", err)
		httputil.WriteInternalError(w, "Failed to create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID returns one post.
// GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	postID := chi.URLParam(r, "id")

	post, err := h.postService.Get(r.Context(), viewerID, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] GetPost handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete removes the caller's post and everything attached to it.
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	postID := chi.URLParam(r, "id")

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] DeletePost handler: %v", err)
		httputil.WriteInternalError(w, "Failed to delete post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// ToggleLike flips the caller's like on a post.
// POST /posts/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req struct {
		PostID string `json:"postId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.PostID == "" {
		httputil.WriteBadRequest(w, "postId is required")
		return
	}

	resp, err := h.postService.ToggleLike(r.Context(), userID, req.PostID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] ToggleLike handler: %v", err)
		httputil.WriteInternalError(w, "Failed to toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// CreateComment adds a comment to a post.
// POST /comments
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.postService.CreateComment(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentContentRequired):
			httputil.WriteBadRequest(w, "Content is required")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			log.Printf("[ERROR] CreateComment handler: %v", err)
			httputil.WriteInternalError(w, "Failed to create comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// ListComments returns a post's comments oldest first.
// GET /posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	comments, err := h.postService.ListComments(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] ListComments handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
	})
}
