package service

import (
	"context"
	"fmt"
	"log"

	"socialcircle/internal/model"
	"socialcircle/internal/repository"
)

// FeedService assembles the paginated home feed. Pagination is offset based
// with a fixed page size; hasMore is derived from a fresh total count, and
// like/comment counts come straight from the relationship tables on every
// request.
type FeedService struct {
	postRepo repository.PostRepository
}

func NewFeedService(postRepo repository.PostRepository) *FeedService {
	return &FeedService{postRepo: postRepo}
}

// GetFeed returns one page of the feed for the viewer. Pages are 1-based;
// anything below 1 is treated as the first page.
func (s *FeedService) GetFeed(ctx context.Context, viewerID string, page int) (*model.FeedResponse, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * model.FeedPageSize

	posts, err := s.postRepo.FeedPage(ctx, offset, model.FeedPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed page: %w", err)
	}

	total, err := s.postRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	if err := s.markLiked(ctx, viewerID, posts); err != nil {
		return nil, err
	}

	log.Printf("[Feed] GetFeed OK: viewer=%s page=%d posts=%d total=%d", viewerID, page, len(posts), total)

	return &model.FeedResponse{
		Posts:       posts,
		HasMore:     offset+len(posts) < total,
		CurrentPage: page,
		TotalPosts:  total,
	}, nil
}

// markLiked flags which posts on the page the viewer has liked, with one
// batch query.
func (s *FeedService) markLiked(ctx context.Context, viewerID string, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	liked, err := s.postRepo.CheckLikes(ctx, viewerID, ids)
	if err != nil {
		return fmt.Errorf("failed to check likes: %w", err)
	}

	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
	}
	return nil
}
