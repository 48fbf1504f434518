package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"socialcircle/internal/config"
	"socialcircle/internal/httputil"
	"socialcircle/internal/model"
	"socialcircle/internal/service"
	"socialcircle/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
	}
}

// Register handles sign-up and triggers the verification email.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		httputil.WriteBadRequest(w, "Name is required")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	_, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteBadRequest(w, "User already exists")
		case errors.Is(err, model.ErrEmailSendFailed):
			httputil.WriteInternalError(w, "Failed to send verification email")
		default:
			httputil.WriteInternalError(w, "Failed to register")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Verification email sent. Please check your inbox.",
	})
}

// VerifyEmail redeems the emailed verification link and redirects back to
// the sign-in page. Link clicks come from a browser, so outcomes are
// communicated as redirect query params, not JSON.
// GET /verify-email?email=...&token=...
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		h.redirectAuth(w, r, "error=invalid_link")
		return
	}

	if err := h.userService.VerifyEmail(r.Context(), email, token); err != nil {
		switch {
		case errors.Is(err, model.ErrLoginTokenExpired):
			h.redirectAuth(w, r, "error=token_expired")
		case errors.Is(err, model.ErrLoginTokenNotFound):
			h.redirectAuth(w, r, "error=invalid_token")
		default:
			h.redirectAuth(w, r, "error=verification_failed")
		}
		return
	}

	h.redirectAuth(w, r, "verified=true")
}

// Login handles credential sign-in.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Email == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			// Unknown email, wrong password, and unverified account all
			// produce this same response on purpose
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	token, err := h.authService.GenerateSessionToken(user)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to create session")
		return
	}

	h.setSessionCookie(w, token)

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:        user,
		AccessToken: token,
		ExpiresIn:   h.config.SessionMaxAge,
	})
}

// RequestEmailLink sends a one-time sign-in link.
// POST /auth/email-link
func (h *AuthHandler) RequestEmailLink(w http.ResponseWriter, r *http.Request) {
	var req model.EmailLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}

	if err := h.userService.RequestEmailLink(r.Context(), req.Email); err != nil {
		if errors.Is(err, model.ErrEmailSendFailed) {
			httputil.WriteInternalError(w, "Failed to send sign-in email")
			return
		}
		httputil.WriteInternalError(w, "Failed to request sign-in link")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Sign-in email sent. Please check your inbox.",
	})
}

// EmailSignin redeems the one-time sign-in link, establishes a session, and
// redirects to the app.
// GET /auth/email-signin?email=...&token=...
func (h *AuthHandler) EmailSignin(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		h.redirectAuth(w, r, "error=invalid_link")
		return
	}

	user, err := h.userService.RedeemEmailLink(r.Context(), email, token)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrLoginTokenExpired):
			h.redirectAuth(w, r, "error=token_expired")
		case errors.Is(err, model.ErrLoginTokenNotFound):
			h.redirectAuth(w, r, "error=invalid_token")
		default:
			h.redirectAuth(w, r, "error=signin_failed")
		}
		return
	}

	session, err := h.authService.GenerateSessionToken(user)
	if err != nil {
		h.redirectAuth(w, r, "error=signin_failed")
		return
	}
	h.setSessionCookie(w, session)

	http.Redirect(w, r, strings.TrimSuffix(h.config.AppBaseURL, "/")+"/", http.StatusFound)
}

// Me returns the currently authenticated user.
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Logout clears the session cookie. The JWT itself stays valid until
// expiry; logout is a client-side affair.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) redirectAuth(w http.ResponseWriter, r *http.Request, query string) {
	base := strings.TrimSuffix(h.config.AppBaseURL, "/")
	http.Redirect(w, r, base+"/auth?"+query, http.StatusFound)
}
