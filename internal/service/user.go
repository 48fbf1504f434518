package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"socialcircle/internal/config"
	"socialcircle/internal/model"
	"socialcircle/internal/repository"
)

// UserService handles registration, sign-in, and profile operations.
type UserService struct {
	repo        repository.UserRepository
	followRepo  repository.FollowRepository
	postRepo    repository.PostRepository
	authService *AuthService
	mailer      Mailer
	config      *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	authService *AuthService,
	mailer Mailer,
	cfg *config.Config,
) *UserService {
	return &UserService{
		repo:        repo,
		followRepo:  followRepo,
		postRepo:    postRepo,
		authService: authService,
		mailer:      mailer,
		config:      cfg,
	}
}

// Register creates an unverified account and sends the verification email.
// If the email cannot be sent, the freshly created user row is deleted so
// the address can register again; a half-registered account that can never
// verify would otherwise squat on the email.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashed := string(hashedPassword)
	user := &model.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHashed: &hashed,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	rawToken, err := s.authService.CreateLoginToken(ctx, email, model.TokenPurposeVerifyEmail)
	if err != nil {
		s.rollbackRegistration(ctx, user.ID)
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	verifyURL := s.verifyURL(email, rawToken)
	if err := s.mailer.SendVerificationEmail(ctx, email, user.Name, verifyURL); err != nil {
		log.Printf("[User] Register email FAILED: email=%s err=%v", email, err)
		s.rollbackRegistration(ctx, user.ID)
		return nil, model.ErrEmailSendFailed
	}

	log.Printf("[User] Register OK: id=%s email=%s", user.ID, email)
	return user, nil
}

func (s *UserService) rollbackRegistration(ctx context.Context, userID string) {
	if err := s.repo.Delete(ctx, userID); err != nil {
		log.Printf("[User] Register rollback FAILED: id=%s err=%v", userID, err)
	}
}

// VerifyEmail redeems a verification token and marks the account verified.
func (s *UserService) VerifyEmail(ctx context.Context, email, rawToken string) error {
	if err := s.authService.ConsumeLoginToken(ctx, email, rawToken, model.TokenPurposeVerifyEmail); err != nil {
		return err
	}

	if err := s.repo.SetEmailVerified(ctx, email, time.Now()); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	log.Printf("[User] VerifyEmail OK: email=%s", email)
	return nil
}

// Login authenticates with email and password. Unknown email, wrong
// password, and unverified account all collapse to the same error so the
// response leaks nothing about which check failed.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	// Email-link accounts have no password
	if user.PasswordHashed == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if !user.IsVerified() {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// RequestEmailLink sends a one-time sign-in link. It does not reveal whether
// the address has an account: the link works either way, creating the
// account on first redemption.
func (s *UserService) RequestEmailLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	rawToken, err := s.authService.CreateLoginToken(ctx, email, model.TokenPurposeEmailSignin)
	if err != nil {
		return fmt.Errorf("failed to create sign-in token: %w", err)
	}

	signinURL := s.signinURL(email, rawToken)
	if err := s.mailer.SendSignInEmail(ctx, email, signinURL); err != nil {
		log.Printf("[User] EmailLink send FAILED: email=%s err=%v", email, err)
		return model.ErrEmailSendFailed
	}

	log.Printf("[User] EmailLink sent: email=%s", email)
	return nil
}

// RedeemEmailLink consumes a sign-in token and returns the account, creating
// it on first use. Link redemption proves ownership of the address, so the
// account is verified either way.
func (s *UserService) RedeemEmailLink(ctx context.Context, email, rawToken string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.authService.ConsumeLoginToken(ctx, email, rawToken, model.TokenPurposeEmailSignin); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}

		now := time.Now()
		user = &model.User{
			Name:          nameFromEmail(email),
			Email:         email,
			EmailVerified: &now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		log.Printf("[User] EmailLink created account: id=%s email=%s", user.ID, email)
		return user, nil
	}

	if !user.IsVerified() {
		now := time.Now()
		if err := s.repo.SetEmailVerified(ctx, email, now); err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}
		user.EmailVerified = &now
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the display name and optionally the image URL.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name string, image *string) (*model.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	return s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(name), image)
}

// GetCard returns a user with derived follower/post counts.
func (s *UserService) GetCard(ctx context.Context, id string) (*model.UserCard, error) {
	return s.repo.GetCard(ctx, id)
}

// GetStats returns derived profile counters, recomputed on every call.
func (s *UserService) GetStats(ctx context.Context, userID string) (*model.ProfileStats, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count following: %w", err)
	}
	posts, err := s.postRepo.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	return &model.ProfileStats{
		Followers: followers,
		Following: following,
		Posts:     posts,
	}, nil
}

// Explore lists all other users with derived counts, newest first.
func (s *UserService) Explore(ctx context.Context, viewerID string) ([]model.UserCard, error) {
	return s.repo.ListOthers(ctx, viewerID)
}

func (s *UserService) verifyURL(email, token string) string {
	return fmt.Sprintf("%s/verify-email?email=%s&token=%s",
		strings.TrimSuffix(s.config.AppBaseURL, "/"), url.QueryEscape(email), url.QueryEscape(token))
}

func (s *UserService) signinURL(email, token string) string {
	return fmt.Sprintf("%s/auth/email-signin?email=%s&token=%s",
		strings.TrimSuffix(s.config.AppBaseURL, "/"), url.QueryEscape(email), url.QueryEscape(token))
}

// nameFromEmail derives a display name for accounts created by email link.
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}
