package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Delete removes a user row; used to roll back a registration whose
	// verification email could not be sent.
	Delete(ctx context.Context, id string) error
	SetEmailVerified(ctx context.Context, email string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, name string, image *string) (*model.User, error)
	// GetCard returns a user with derived follower/post counts.
	GetCard(ctx context.Context, id string) (*model.UserCard, error)
	// ListOthers returns all users except the given one, newest first,
	// with derived counts (explore page).
	ListOthers(ctx context.Context, excludeID string) ([]model.UserCard, error)
	// ListWithInlineImages returns users whose image is a legacy inline
	// data: URL, for migration to object storage.
	ListWithInlineImages(ctx context.Context) ([]model.User, error)
	UpdateImage(ctx context.Context, id string, image string) error
}

type LoginTokenRepository interface {
	Create(ctx context.Context, token *model.LoginToken) error
	// FindValid returns the newest unconsumed token for the email/purpose
	// pair matching the given hash. Expiry is checked by the caller.
	FindValid(ctx context.Context, email, tokenHash, purpose string) (*model.LoginToken, error)
	Consume(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type FollowRepository interface {
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	Create(ctx context.Context, followerID, followeeID string) error
	Delete(ctx context.Context, followerID, followeeID string) error
	// ListFollowers/ListFollowing return user cards ordered by newest edge.
	ListFollowers(ctx context.Context, userID string) ([]model.UserCard, error)
	ListFollowing(ctx context.Context, userID string) ([]model.UserCard, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// GetOwned returns the post only if it belongs to authorID.
	GetOwned(ctx context.Context, id, authorID string) (*model.Post, error)
	// Delete removes a post and, in the same transaction, its likes and
	// comments.
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
	// FeedPage returns a page of posts ordered by created_at DESC with
	// derived like/comment counts and author summaries.
	FeedPage(ctx context.Context, offset, limit int) ([]model.Post, error)
	CountAll(ctx context.Context) (int, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
	// CheckLikes reports which of the given posts the user has liked.
	CheckLikes(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	LikeExists(ctx context.Context, userID, postID string) (bool, error)
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
	CountLikes(ctx context.Context, postID string) (int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// ListByPost returns comments oldest first with author summaries.
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	// GetConversation returns all messages between the two users in either
	// direction, oldest first, with participant summaries.
	GetConversation(ctx context.Context, viewerID, otherID string) ([]model.Message, error)
	// GetLatest returns the newest message of the conversation, or nil if
	// the conversation has no messages yet.
	GetLatest(ctx context.Context, viewerID, otherID string) (*model.Message, error)
	// ListTouching returns every message where the user is sender or
	// receiver, newest first, with participant summaries.
	ListTouching(ctx context.Context, userID string) ([]model.Message, error)
}
