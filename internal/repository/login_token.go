package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
)

type loginTokenRepository struct {
	db *sqlx.DB
}

func NewLoginTokenRepository(db *sqlx.DB) LoginTokenRepository {
	return &loginTokenRepository{db: db}
}

func (r *loginTokenRepository) Create(ctx context.Context, t *model.LoginToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	query := `
		INSERT INTO login_tokens (id, email, token_hash, purpose, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	row := r.db.QueryRowxContext(ctx, query, t.ID, t.Email, t.TokenHash, t.Purpose, t.ExpiresAt)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert login token: %w", err)
	}
	return nil
}

// FindValid returns the newest unconsumed token matching the
// email/hash/purpose triple. Expiry is left to the caller so expired and
// unknown tokens surface as distinct errors.
func (r *loginTokenRepository) FindValid(ctx context.Context, email, tokenHash, purpose string) (*model.LoginToken, error) {
	query := `
		SELECT id, email, token_hash, purpose, expires_at, created_at, consumed_at
		FROM login_tokens
		WHERE email = $1 AND token_hash = $2 AND purpose = $3
		  AND consumed_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	var t model.LoginToken
	err := r.db.GetContext(ctx, &t, query, email, tokenHash, purpose)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrLoginTokenNotFound
		}
		return nil, fmt.Errorf("failed to find login token: %w", err)
	}
	return &t, nil
}

// Consume marks a token used. Tokens are one-shot.
func (r *loginTokenRepository) Consume(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE login_tokens SET consumed_at = NOW() WHERE id = $1 AND consumed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to consume login token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrLoginTokenNotFound
	}
	return nil
}

// DeleteExpired removes tokens that expired more than olderThan ago.
func (r *loginTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.ExecContext(ctx, `DELETE FROM login_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
