package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"socialcircle/internal/handler"
	"socialcircle/internal/httputil"
	authmw "socialcircle/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	UserHandler        *handler.UserHandler
	FeedHandler        *handler.FeedHandler
	FollowHandler      *handler.FollowHandler
	PostHandler        *handler.PostHandler
	MessageHandler     *handler.MessageHandler
	MaintenanceHandler *handler.MaintenanceHandler
	JWTSecret          string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/register", cfg.AuthHandler.Register)
	r.Get("/verify-email", cfg.AuthHandler.VerifyEmail)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/email-link", cfg.AuthHandler.RequestEmailLink)
		r.Get("/email-signin", cfg.AuthHandler.EmailSignin)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user
		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/profile", cfg.UserHandler.UpdateProfile)

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", cfg.UserHandler.GetProfile)
			r.Get("/{id}/stats", cfg.UserHandler.GetStats)
			r.Get("/{id}/posts", cfg.UserHandler.GetUserPosts)
			r.Get("/{id}/followers", cfg.UserHandler.GetFollowers)
			r.Get("/{id}/following", cfg.UserHandler.GetFollowing)
		})

		// Explore and follow graph
		r.Get("/explore", cfg.UserHandler.Explore)
		r.Post("/explore/follow", cfg.FollowHandler.Toggle)
		r.Get("/explore/follow-status", cfg.FollowHandler.Status)

		// Feed
		r.Get("/feed", cfg.FeedHandler.GetFeed)

		// Posts, likes, comments
		r.Post("/posts", cfg.PostHandler.Create)
		r.Get("/posts/{id}", cfg.PostHandler.GetByID)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/like", cfg.PostHandler.ToggleLike)
		r.Get("/posts/{id}/comments", cfg.PostHandler.ListComments)
		r.Post("/comments", cfg.PostHandler.CreateComment)

		// Messaging
		r.Route("/messages", func(r chi.Router) {
			r.Post("/send", cfg.MessageHandler.Send)
			r.Get("/conversation", cfg.MessageHandler.Conversation)
			r.Get("/conversations", cfg.MessageHandler.Conversations)
			r.Get("/stream", cfg.MessageHandler.Stream)
		})

		// Admin maintenance
		r.Post("/admin/cleanup-images", cfg.MaintenanceHandler.CleanupImages)
	})

	return r
}
