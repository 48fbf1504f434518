package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
	"socialcircle/internal/repository"
)

// PostService handles posts, likes, and comments. Like counts are derived
// by counting rows; the like endpoint is a toggle with the same race
// tolerance as follows.
type PostService struct {
	db          *sqlx.DB
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	media       *MediaService // nil disables storage cleanup on delete
}

func NewPostService(db *sqlx.DB, postRepo repository.PostRepository, commentRepo repository.CommentRepository, media *MediaService) *PostService {
	return &PostService{
		db:          db,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		media:       media,
	}
}

// Create stores a new post. Content is required; title and image are not.
func (s *PostService) Create(ctx context.Context, authorID string, title *string, content string, image *string) (*model.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, model.ErrContentRequired
	}

	post := &model.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  strings.TrimSpace(content),
		Image:    image,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	log.Printf("[Post] Create OK: id=%s author=%s", post.ID, authorID)
	return s.postRepo.GetByID(ctx, post.ID)
}

// Get returns one post with derived counts and the viewer's like state.
func (s *PostService) Get(ctx context.Context, viewerID, postID string) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked, err := s.postRepo.LikeExists(ctx, viewerID, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check like: %w", err)
	}
	post.IsLiked = liked
	return post, nil
}

// ListByAuthor returns a user's posts with the viewer's like states.
func (s *PostService) ListByAuthor(ctx context.Context, viewerID, authorID string) ([]model.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.postRepo.CheckLikes(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}
	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
	}
	return posts, nil
}

// Delete removes the caller's post together with its likes and comments in
// one transaction, then best-effort removes the stored image. No row
// referencing the post id survives the commit.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetOwned(ctx, postID, userID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Delete(ctx, tx, postID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	if s.media != nil && post.Image != nil {
		if key := s.media.KeyFromURL(*post.Image); key != "" {
			if err := s.media.DeleteObject(ctx, key); err != nil {
				// The row is gone; a stranded object is only storage waste
				log.Printf("[Post] Delete image cleanup FAILED: post=%s key=%s err=%v", postID, key, err)
			}
		}
	}

	log.Printf("[Post] Delete OK: id=%s author=%s", postID, userID)
	return nil
}

// ToggleLike flips the viewer's like on a post and reports the resulting
// state with the freshly counted total.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (*model.ToggleLikeResponse, error) {
	if postID == "" {
		return nil, fmt.Errorf("postId is required")
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	liked, err := s.postRepo.LikeExists(ctx, userID, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check like: %w", err)
	}

	if liked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, fmt.Errorf("failed to unlike: %w", err)
		}
	} else {
		if err := s.postRepo.Like(ctx, userID, postID); err != nil {
			return nil, fmt.Errorf("failed to like: %w", err)
		}
	}

	isLiked := !liked
	log.Printf("[Post] ToggleLike OK: user=%s post=%s liked=%t", userID, postID, isLiked)

	msg := "Post unliked"
	if isLiked {
		msg = "Post liked"
	}
	return &model.ToggleLikeResponse{
		Success: true,
		IsLiked: isLiked,
		Message: msg,
	}, nil
}

// CreateComment adds a comment to an existing post.
func (s *PostService) CreateComment(ctx context.Context, userID string, req *model.CreateCommentRequest) (*model.Comment, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, model.ErrCommentContentRequired
	}
	if req.PostID == "" {
		return nil, fmt.Errorf("postId is required")
	}

	exists, err := s.postRepo.Exists(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comment := &model.Comment{
		PostID:  req.PostID,
		UserID:  userID,
		Content: strings.TrimSpace(req.Content),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	log.Printf("[Post] CreateComment OK: id=%s post=%s user=%s", comment.ID, req.PostID, userID)
	return comment, nil
}

// ListComments returns a post's comments oldest first.
func (s *PostService) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
