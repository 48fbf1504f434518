package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

type commentRow struct {
	ID          string         `db:"id"`
	PostID      string         `db:"post_id"`
	UserID      string         `db:"user_id"`
	Content     string         `db:"content"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	AuthorName  string         `db:"author_name"`
	AuthorEmail string         `db:"author_email"`
	AuthorImage sql.NullString `db:"author_image"`
}

func (row commentRow) toComment() model.Comment {
	c := model.Comment{
		ID:      row.ID,
		PostID:  row.PostID,
		UserID:  row.UserID,
		Content: row.Content,
		Author: &model.UserSummary{
			ID:    row.UserID,
			Name:  row.AuthorName,
			Email: row.AuthorEmail,
		},
	}
	if row.CreatedAt.Valid {
		c.CreatedAt = row.CreatedAt.Time
	}
	if row.AuthorImage.Valid {
		img := row.AuthorImage.String
		c.Author.Image = &img
	}
	return c
}

// Create inserts a comment and returns it with the author summary attached,
// so the response needs no second round trip.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query := `
		INSERT INTO comments (id, post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	row := r.db.QueryRowxContext(ctx, query, c.ID, c.PostID, c.UserID, c.Content)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	author := `SELECT name AS author_name, email AS author_email, image AS author_image FROM users WHERE id = $1`
	var a struct {
		AuthorName  string         `db:"author_name"`
		AuthorEmail string         `db:"author_email"`
		AuthorImage sql.NullString `db:"author_image"`
	}
	if err := r.db.GetContext(ctx, &a, author, c.UserID); err != nil {
		return fmt.Errorf("failed to get comment author: %w", err)
	}
	c.Author = &model.UserSummary{ID: c.UserID, Name: a.AuthorName, Email: a.AuthorEmail}
	if a.AuthorImage.Valid {
		img := a.AuthorImage.String
		c.Author.Image = &img
	}
	return nil
}

// ListByPost returns a post's comments oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       u.name AS author_name, u.email AS author_email, u.image AS author_image
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}
