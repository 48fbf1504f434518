package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"socialcircle/internal/config"
	"socialcircle/internal/model"
	"socialcircle/internal/repository"
)

// AuthService issues session tokens and manages one-time email link tokens.
// Email tokens are stored hashed; the raw value only ever exists inside the
// link we mail out.
type AuthService struct {
	loginTokenRepo repository.LoginTokenRepository
	config         *config.Config
}

func NewAuthService(loginTokenRepo repository.LoginTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		loginTokenRepo: loginTokenRepo,
		config:         cfg,
	}
}

// GenerateSessionToken issues the JWT that backs a login session. The claims
// mirror what profile-aware pages need so they render without a user fetch.
func (s *AuthService) GenerateSessionToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":        user.ID,
		"name":           user.Name,
		"email_verified": user.IsVerified(),
		"exp":            time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second).Unix(),
		"iat":            time.Now().Unix(),
	}
	if user.Image != nil {
		claims["image"] = *user.Image
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// CreateLoginToken mints a one-time token for the given purpose and stores
// its hash. Returns the raw token for embedding in the emailed link. Each
// mint also sweeps tokens that expired more than a day ago, so the table
// does not need a separate cleanup job.
func (s *AuthService) CreateLoginToken(ctx context.Context, email, purpose string) (string, error) {
	if n, err := s.loginTokenRepo.DeleteExpired(ctx, 24*time.Hour); err != nil {
		log.Printf("[Auth] Expired token sweep FAILED: err=%v", err)
	} else if n > 0 {
		log.Printf("[Auth] Expired token sweep OK: removed=%d", n)
	}

	raw := uuid.NewString()

	token := &model.LoginToken{
		Email:     email,
		TokenHash: s.hashToken(raw),
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(time.Duration(s.config.LoginTokenMaxAge) * time.Second),
	}

	if err := s.loginTokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store login token: %w", err)
	}
	return raw, nil
}

// ConsumeLoginToken validates a raw token against the stored hash and marks
// it consumed. Each token redeems at most once.
func (s *AuthService) ConsumeLoginToken(ctx context.Context, email, raw, purpose string) error {
	token, err := s.loginTokenRepo.FindValid(ctx, email, s.hashToken(raw), purpose)
	if err != nil {
		if errors.Is(err, model.ErrLoginTokenNotFound) {
			return model.ErrLoginTokenNotFound
		}
		return fmt.Errorf("failed to look up login token: %w", err)
	}

	if token.IsExpired() {
		return model.ErrLoginTokenExpired
	}

	if err := s.loginTokenRepo.Consume(ctx, token.ID); err != nil {
		return fmt.Errorf("failed to consume login token: %w", err)
	}
	return nil
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
