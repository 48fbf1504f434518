package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialcircle/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postRow is the scan target for post queries with joined author fields and
// derived counts. Counts come from COUNT subselects at read time; there are
// no counter columns.
type postRow struct {
	ID           string         `db:"id"`
	AuthorID     string         `db:"author_id"`
	Title        *string        `db:"title"`
	Content      string         `db:"content"`
	Image        *string        `db:"image"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	LikeCount    int            `db:"like_count"`
	CommentCount int            `db:"comment_count"`
	AuthorName   string         `db:"author_name"`
	AuthorEmail  string         `db:"author_email"`
	AuthorImage  sql.NullString `db:"author_image"`
}

const postSelect = `
	SELECT p.id, p.author_id, p.title, p.content, p.image, p.created_at,
	       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
	       u.name AS author_name, u.email AS author_email, u.image AS author_image
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

func (row postRow) toPost() model.Post {
	p := model.Post{
		ID:           row.ID,
		AuthorID:     row.AuthorID,
		Title:        row.Title,
		Content:      row.Content,
		Image:        row.Image,
		LikeCount:    row.LikeCount,
		CommentCount: row.CommentCount,
		Author: &model.UserSummary{
			ID:    row.AuthorID,
			Name:  row.AuthorName,
			Email: row.AuthorEmail,
		},
	}
	if row.CreatedAt.Valid {
		p.CreatedAt = row.CreatedAt.Time
	}
	if row.AuthorImage.Valid {
		img := row.AuthorImage.String
		p.Author.Image = &img
	}
	return p
}

// Create inserts a new post.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := `
		INSERT INTO posts (id, author_id, title, content, image, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	row := r.db.QueryRowxContext(ctx, query, p.ID, p.AuthorID, p.Title, p.Content, p.Image)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post with author and derived counts.
func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, postSelect+` WHERE p.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	p := row.toPost()
	return &p, nil
}

// GetOwned returns the post only if it belongs to authorID.
// Ownership misses and missing posts are indistinguishable to the caller.
func (r *postRepository) GetOwned(ctx context.Context, id, authorID string) (*model.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, postSelect+` WHERE p.id = $1 AND p.author_id = $2`, id, authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get owned post: %w", err)
	}
	p := row.toPost()
	return &p, nil
}

// Delete removes a post plus its likes and comments. Caller owns the
// transaction so the cascade is atomic; no orphan rows remain reachable by
// post_id.
func (r *postRepository) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// FeedPage returns one offset page ordered by created_at DESC. The feed
// covers all authors: followed users, the viewer, and the discovery slot of
// everyone else, which together is the full table.
func (r *postRepository) FeedPage(ctx context.Context, offset, limit int) ([]model.Post, error) {
	query := postSelect + `
		ORDER BY p.created_at DESC
		OFFSET $1 LIMIT $2
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to get feed page: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

// CountAll recounts the feed total on every request; hasMore is derived
// from it, never cached.
func (r *postRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListByAuthor returns a user's posts newest first.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	query := postSelect + `
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, authorID); err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts by author: %w", err)
	}
	return count, nil
}

// Exists checks if a post exists.
func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check post exists: %w", err)
	}
	return exists, nil
}

// CheckLikes reports which of the given posts the user has liked.
// Single batch query with ANY($2), not N+1.
func (r *postRepository) CheckLikes(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	if len(postIDs) == 0 {
		return make(map[string]bool), nil
	}

	query := `SELECT post_id FROM likes WHERE user_id = $1 AND post_id = ANY($2)`
	var likedIDs []string
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}

	result := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}
	return result, nil
}

func (r *postRepository) LikeExists(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}
	return exists, nil
}

// Like inserts the (user, post) edge. ON CONFLICT DO NOTHING absorbs
// concurrent toggles racing on the same pair.
func (r *postRepository) Like(ctx context.Context, userID, postID string) error {
	query := `
		INSERT INTO likes (user_id, post_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID string) error {
	query := `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// CountLikes derives the like count by counting rows.
func (r *postRepository) CountLikes(ctx context.Context, postID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}
