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

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hashed, image, email_verified, created_at, updated_at`

// Create inserts a new user. The id is generated here so callers can use it
// immediately (session tokens, email links).
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, name, email, password_hashed, image, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHashed, u.Image, u.EmailVerified)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// ExistsByEmail checks if an email is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Delete removes a user row. Only used to roll back a registration whose
// verification email could not be delivered.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// SetEmailVerified stamps the verification time on the user.
func (r *userRepository) SetEmailVerified(ctx context.Context, email string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = $1, updated_at = NOW() WHERE email = $2`, at, email)
	if err != nil {
		return fmt.Errorf("failed to set email verified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// UpdateProfile updates the mutable profile fields and returns the fresh row.
func (r *userRepository) UpdateProfile(ctx context.Context, id string, name string, image *string) (*model.User, error) {
	query := `
		UPDATE users SET name = $1, image = COALESCE($2, image), updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns
	var u model.User
	err := r.db.GetContext(ctx, &u, query, name, image, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &u, nil
}

// GetCard returns a user with derived follower and post counts. Counts are
// read-time aggregations over the relationship tables, never stored.
func (r *userRepository) GetCard(ctx context.Context, id string) (*model.UserCard, error) {
	query := `
		SELECT u.id, u.name, u.email, u.image, u.created_at,
		       (SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id) AS follower_count,
		       (SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id) AS post_count
		FROM users u
		WHERE u.id = $1
	`
	var card model.UserCard
	err := r.db.GetContext(ctx, &card, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user card: %w", err)
	}
	return &card, nil
}

// ListOthers returns every user except excludeID, newest first, with derived
// counts (explore page).
func (r *userRepository) ListOthers(ctx context.Context, excludeID string) ([]model.UserCard, error) {
	query := `
		SELECT u.id, u.name, u.email, u.image, u.created_at,
		       (SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id) AS follower_count,
		       (SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id) AS post_count
		FROM users u
		WHERE u.id <> $1
		ORDER BY u.created_at DESC
	`
	var cards []model.UserCard
	if err := r.db.SelectContext(ctx, &cards, query, excludeID); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return cards, nil
}

// ListWithInlineImages finds users still carrying legacy inline-encoded
// images, for migration to object storage.
func (r *userRepository) ListWithInlineImages(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE image LIKE 'data:%'`
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users with inline images: %w", err)
	}
	return users, nil
}

// UpdateImage rewrites the stored image URL (used by the migration worker).
func (r *userRepository) UpdateImage(ctx context.Context, id string, image string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET image = $1, updated_at = NOW() WHERE id = $2`, image, id)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}
	return nil
}
