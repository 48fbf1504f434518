package model

import (
	"errors"
	"time"
)

// Post represents a user's post. LikeCount and CommentCount are not stored
// columns; they are counted from the likes/comments tables at read time.
type Post struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Title     *string   `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Image     *string   `db:"image" json:"image"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Derived/joined fields
	LikeCount    int          `db:"like_count" json:"like_count"`
	CommentCount int          `db:"comment_count" json:"comment_count"`
	Author       *UserSummary `json:"author,omitempty"`
	IsLiked      bool         `json:"is_liked"`
}

// FeedResponse is the offset-paginated feed page.
// HasMore is computed as offset+limit < TotalPosts, with TotalPosts
// recounted on every request.
type FeedResponse struct {
	Posts       []Post `json:"posts"`
	HasMore     bool   `json:"hasMore"`
	CurrentPage int    `json:"currentPage"`
	TotalPosts  int    `json:"totalPosts"`
}

// ToggleLikeResponse is returned by the like toggle endpoint.
type ToggleLikeResponse struct {
	Success bool   `json:"success"`
	IsLiked bool   `json:"isLiked"`
	Message string `json:"message"`
}

// Feed and upload constants
const (
	FeedPageSize = 10

	MaxImageSizeBytes  int64 = 5 * 1024 * 1024 // 5MB upload limit
	PostImageFolder          = "posts"
	ProfileImageFolder       = "profiles"
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrContentRequired = errors.New("content is required")
)
