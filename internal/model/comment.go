package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. Comments are append-only and are
// listed oldest first.
type Comment struct {
	ID        string       `db:"id" json:"id"`
	PostID    string       `db:"post_id" json:"post_id"`
	UserID    string       `db:"user_id" json:"user_id"`
	Content   string       `db:"content" json:"content"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"user,omitempty"` // Joined field
}

// CreateCommentRequest is the request body for POST /posts/comment.
type CreateCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

var (
	// ErrCommentContentRequired is returned when the comment body is empty or blank
	ErrCommentContentRequired = errors.New("comment content is required")
)
