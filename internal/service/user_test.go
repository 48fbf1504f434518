package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"socialcircle/internal/config"
	"socialcircle/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		SessionMaxAge:    3600,
		LoginTokenMaxAge: 86400,
		AppBaseURL:       "http://localhost:3000",
	}
}

func newUserServiceForTest(userRepo *mockUserRepository, tokenRepo *mockLoginTokenRepository, mailer *mockMailer) *UserService {
	cfg := testConfig()
	auth := NewAuthService(tokenRepo, cfg)
	return NewUserService(userRepo, newMockFollowRepository(), newMockPostRepository(), auth, mailer, cfg)
}

func TestUserService_Register_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	tokenRepo := &mockLoginTokenRepository{}
	mailer := &mockMailer{}
	svc := newUserServiceForTest(userRepo, tokenRepo, mailer)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "securepassword123",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased %q", user.Email, "alice@example.com")
	}
	if user.IsVerified() {
		t.Error("new registration should be unverified")
	}
	if user.PasswordHashed == nil || *user.PasswordHashed == "securepassword123" {
		t.Error("password should be hashed, not stored in plain text")
	}

	if len(mailer.verificationSends) != 1 || mailer.verificationSends[0] != "alice@example.com" {
		t.Errorf("verification sends = %v, want one to alice@example.com", mailer.verificationSends)
	}
	if len(tokenRepo.tokens) != 1 || tokenRepo.tokens[0].Purpose != model.TokenPurposeVerifyEmail {
		t.Fatalf("expected one verify_email token, got %d", len(tokenRepo.tokens))
	}
	if len(userRepo.deleteCalls) != 0 {
		t.Errorf("no rollback expected, got deletes: %v", userRepo.deleteCalls)
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	userRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newUserServiceForTest(userRepo, &mockLoginTokenRepository{}, &mockMailer{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "pw123456",
	})
	if !errors.Is(err, model.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got: %v", err)
	}
	if len(userRepo.createCalls) != 0 {
		t.Error("no user row should be created for a duplicate email")
	}
}

func TestUserService_Register_EmailSendFailureRollsBack(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newUserServiceForTest(userRepo, &mockLoginTokenRepository{}, &mockMailer{failVerification: true})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "pw123456",
	})
	if !errors.Is(err, model.ErrEmailSendFailed) {
		t.Fatalf("expected ErrEmailSendFailed, got: %v", err)
	}

	if len(userRepo.createCalls) != 1 {
		t.Fatalf("expected user to be created before the send, got %d creates", len(userRepo.createCalls))
	}
	if len(userRepo.deleteCalls) != 1 || userRepo.deleteCalls[0] != userRepo.createCalls[0].ID {
		t.Errorf("expected the created user to be deleted on email failure, got deletes: %v", userRepo.deleteCalls)
	}
}

func TestUserService_VerifyEmail(t *testing.T) {
	userRepo := &mockUserRepository{}
	tokenRepo := &mockLoginTokenRepository{}
	mailer := &mockMailer{}
	svc := newUserServiceForTest(userRepo, tokenRepo, mailer)

	cfg := testConfig()
	auth := NewAuthService(tokenRepo, cfg)
	raw, err := auth.CreateLoginToken(context.Background(), "carol@example.com", model.TokenPurposeVerifyEmail)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	if err := svc.VerifyEmail(context.Background(), "carol@example.com", raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(userRepo.verifiedCalls) != 1 || userRepo.verifiedCalls[0] != "carol@example.com" {
		t.Errorf("verified calls = %v, want one for carol@example.com", userRepo.verifiedCalls)
	}

	// One-shot: the same token must not redeem twice
	if err := svc.VerifyEmail(context.Background(), "carol@example.com", raw); !errors.Is(err, model.ErrLoginTokenNotFound) {
		t.Errorf("expected ErrLoginTokenNotFound on reuse, got: %v", err)
	}
}

func TestAuthService_CreateLoginToken_SweepsExpired(t *testing.T) {
	tokenRepo := &mockLoginTokenRepository{}
	auth := NewAuthService(tokenRepo, testConfig())

	if _, err := auth.CreateLoginToken(context.Background(), "carol@example.com", model.TokenPurposeVerifyEmail); err != nil {
		t.Fatalf("create token: %v", err)
	}
	if tokenRepo.deleteExpiredCalls != 1 {
		t.Errorf("expected one expired-token sweep per mint, got %d", tokenRepo.deleteExpiredCalls)
	}
	if len(tokenRepo.tokens) != 1 {
		t.Fatalf("expected the token to be stored, got %d", len(tokenRepo.tokens))
	}
}

func TestUserService_VerifyEmail_Expired(t *testing.T) {
	tokenRepo := &mockLoginTokenRepository{
		findValidFn: func(ctx context.Context, email, tokenHash, purpose string) (*model.LoginToken, error) {
			return &model.LoginToken{
				ID:        "t1",
				Email:     email,
				TokenHash: tokenHash,
				Purpose:   purpose,
				ExpiresAt: time.Now().Add(-time.Hour),
			}, nil
		},
	}
	svc := newUserServiceForTest(&mockUserRepository{}, tokenRepo, &mockMailer{})

	err := svc.VerifyEmail(context.Background(), "dave@example.com", "whatever")
	if !errors.Is(err, model.ErrLoginTokenExpired) {
		t.Fatalf("expected ErrLoginTokenExpired, got: %v", err)
	}
}

func hashFor(t *testing.T, password string) *string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	s := string(h)
	return &s
}

func TestUserService_Login(t *testing.T) {
	now := time.Now()
	verified := &model.User{
		ID:             "u1",
		Email:          "eve@example.com",
		PasswordHashed: hashFor(t, "correct-password"),
		EmailVerified:  &now,
	}
	unverified := &model.User{
		ID:             "u2",
		Email:          "frank@example.com",
		PasswordHashed: hashFor(t, "correct-password"),
	}
	passwordless := &model.User{
		ID:            "u3",
		Email:         "grace@example.com",
		EmailVerified: &now,
	}

	userRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			switch email {
			case "eve@example.com":
				return verified, nil
			case "frank@example.com":
				return unverified, nil
			case "grace@example.com":
				return passwordless, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := newUserServiceForTest(userRepo, &mockLoginTokenRepository{}, &mockMailer{})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid credentials", "eve@example.com", "correct-password", nil},
		{"wrong password", "eve@example.com", "wrong-password", model.ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "correct-password", model.ErrInvalidCredentials},
		{"unverified account", "frank@example.com", "correct-password", model.ErrInvalidCredentials},
		{"email-link account has no password", "grace@example.com", "anything", model.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				if user.Email != tt.email {
					t.Errorf("email = %q, want %q", user.Email, tt.email)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserService_RedeemEmailLink_CreatesAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	tokenRepo := &mockLoginTokenRepository{}
	svc := newUserServiceForTest(userRepo, tokenRepo, &mockMailer{})

	if err := svc.RequestEmailLink(context.Background(), "newbie@example.com"); err != nil {
		t.Fatalf("request link: %v", err)
	}
	if len(tokenRepo.tokens) != 1 {
		t.Fatalf("expected one token, got %d", len(tokenRepo.tokens))
	}

	// Recover the raw token via the hash helper; same config, same secret
	auth := NewAuthService(tokenRepo, testConfig())
	raw, err := auth.CreateLoginToken(context.Background(), "newbie@example.com", model.TokenPurposeEmailSignin)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	user, err := svc.RedeemEmailLink(context.Background(), "newbie@example.com", raw)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if user.Name != "newbie" {
		t.Errorf("name = %q, want local part %q", user.Name, "newbie")
	}
	if !user.IsVerified() {
		t.Error("link redemption proves address ownership; account should be verified")
	}
	if len(userRepo.createCalls) != 1 {
		t.Errorf("expected account creation on first redemption, got %d creates", len(userRepo.createCalls))
	}
}
