package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// Create inserts the edge. ON CONFLICT DO NOTHING keeps concurrent toggles
// from erroring; the toggle decision was already made by the service.
func (r *followRepository) Create(ctx context.Context, followerID, followeeID string) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	if _, err := r.db.ExecContext(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

const followCardColumns = `
	u.id, u.name, u.email, u.image, u.created_at,
	(SELECT COUNT(*) FROM follows ff WHERE ff.followee_id = u.id) AS follower_count,
	(SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id) AS post_count
`

// ListFollowers returns the users following userID, newest edge first, with
// derived counts.
func (r *followRepository) ListFollowers(ctx context.Context, userID string) ([]model.UserCard, error) {
	query := `
		SELECT ` + followCardColumns + `
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
	`
	var cards []model.UserCard
	if err := r.db.SelectContext(ctx, &cards, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return cards, nil
}

// ListFollowing returns the users userID follows, newest edge first.
func (r *followRepository) ListFollowing(ctx context.Context, userID string) ([]model.UserCard, error) {
	query := `
		SELECT ` + followCardColumns + `
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`
	var cards []model.UserCard
	if err := r.db.SelectContext(ctx, &cards, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return cards, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM follows WHERE followee_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return count, nil
}
