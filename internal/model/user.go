package model

import (
	"errors"
	"time"
)

// User represents a user in the system.
// PasswordHashed is nullable: accounts created through email-link sign-in
// have no password. EmailVerified is nil until the verification link is used.
type User struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	PasswordHashed *string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Image          *string    `db:"image" json:"image"`
	EmailVerified  *time.Time `db:"email_verified" json:"email_verified"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsVerified reports whether the verification link has been used.
func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}

// UserSummary is the embedded author/participant shape used across posts,
// comments and messages.
type UserSummary struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Email string  `db:"email" json:"email,omitempty"`
	Image *string `db:"image" json:"image"`
}

// UserCard is a user with derived relationship counts, used by explore and
// follower/following listings. Counts are computed from relationship rows at
// read time, never stored.
type UserCard struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Image         *string   `db:"image" json:"image"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	FollowerCount int       `db:"follower_count" json:"follower_count"`
	PostCount     int       `db:"post_count" json:"post_count"`
}

// ProfileStats are the derived counts shown on the profile page.
type ProfileStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
	Posts     int `json:"posts"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful credential or email-link sign-in.
type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // Seconds until the session token expires
}

// EmailLinkRequest is the request body for POST /auth/email-link.
type EmailLinkRequest struct {
	Email string `json:"email"`
}

// UpdateProfileResponse is returned by POST /profile.
type UpdateProfileResponse struct {
	Message string       `json:"message"`
	User    *UserSummary `json:"user"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register an email that is taken
	ErrEmailExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned for any credential sign-in failure.
	// Unverified accounts and wrong passwords are deliberately not
	// distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailSendFailed is returned when the verification email cannot be delivered
	ErrEmailSendFailed = errors.New("failed to send verification email")
)

// Session token error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)
