package model

import (
	"errors"
	"time"
)

// Login token purposes. A verify_email token is minted at registration; an
// email_signin token backs the passwordless email-link sign-in flow.
const (
	TokenPurposeVerifyEmail = "verify_email"
	TokenPurposeEmailSignin = "email_signin"
)

// LoginToken is a one-shot emailed token, stored hashed.
type LoginToken struct {
	ID         string     `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	TokenHash  string     `db:"token_hash" json:"-"` // Never expose hash
	Purpose    string     `db:"purpose" json:"purpose"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
}

// IsExpired returns true if the token has expired.
func (t *LoginToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsConsumed returns true if the token has already been used.
func (t *LoginToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// Login token errors
var (
	ErrLoginTokenNotFound = errors.New("login token not found")
	ErrLoginTokenExpired  = errors.New("login token expired")
)
