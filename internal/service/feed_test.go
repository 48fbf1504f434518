package service

import (
	"context"
	"fmt"
	"testing"

	"socialcircle/internal/model"
)

// feedPostRepo serves a fixed set of posts through the paging methods so the
// hasMore arithmetic can be checked against a known total.
type feedPostRepo struct {
	mockPostRepository
	all []model.Post
}

func newFeedPostRepo(total int) *feedPostRepo {
	r := &feedPostRepo{mockPostRepository: *newMockPostRepository()}
	for i := 0; i < total; i++ {
		r.all = append(r.all, model.Post{
			ID:       fmt.Sprintf("post-%d", i),
			AuthorID: "author",
			Content:  fmt.Sprintf("post %d", i),
		})
	}
	return r
}

func (r *feedPostRepo) FeedPage(ctx context.Context, offset, limit int) ([]model.Post, error) {
	if offset >= len(r.all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.all) {
		end = len(r.all)
	}
	page := make([]model.Post, end-offset)
	copy(page, r.all[offset:end])
	return page, nil
}

func (r *feedPostRepo) CountAll(ctx context.Context) (int, error) {
	return len(r.all), nil
}

func (r *feedPostRepo) CheckLikes(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = id == "post-3" // viewer liked exactly one post
	}
	return result, nil
}

func TestFeedService_Pagination(t *testing.T) {
	// 25 posts: pages of 10, 10, 5
	repo := newFeedPostRepo(25)
	svc := NewFeedService(repo)

	tests := []struct {
		page      int
		wantPosts int
		wantMore  bool
	}{
		{1, 10, true},
		{2, 10, true},
		{3, 5, false},
		{4, 0, false},
	}

	seen := make(map[string]int)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page%d", tt.page), func(t *testing.T) {
			feed, err := svc.GetFeed(context.Background(), "viewer", tt.page)
			if err != nil {
				t.Fatalf("GetFeed: %v", err)
			}
			if len(feed.Posts) != tt.wantPosts {
				t.Errorf("posts = %d, want %d", len(feed.Posts), tt.wantPosts)
			}
			if feed.HasMore != tt.wantMore {
				t.Errorf("hasMore = %t, want %t", feed.HasMore, tt.wantMore)
			}
			if feed.TotalPosts != 25 {
				t.Errorf("totalPosts = %d, want 25", feed.TotalPosts)
			}
			if feed.CurrentPage != tt.page {
				t.Errorf("currentPage = %d, want %d", feed.CurrentPage, tt.page)
			}
			for _, p := range feed.Posts {
				seen[p.ID]++
			}
		})
	}

	// Every post appears exactly once across non-overlapping pages
	if len(seen) != 25 {
		t.Errorf("distinct posts across pages = %d, want 25", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("post %s appeared %d times, want 1", id, n)
		}
	}
}

func TestFeedService_MarksViewerLikes(t *testing.T) {
	repo := newFeedPostRepo(10)
	svc := NewFeedService(repo)

	feed, err := svc.GetFeed(context.Background(), "viewer", 1)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}

	for _, p := range feed.Posts {
		want := p.ID == "post-3"
		if p.IsLiked != want {
			t.Errorf("post %s isLiked = %t, want %t", p.ID, p.IsLiked, want)
		}
	}
}

func TestFeedService_NonPositivePageDefaultsToFirst(t *testing.T) {
	repo := newFeedPostRepo(3)
	svc := NewFeedService(repo)

	feed, err := svc.GetFeed(context.Background(), "viewer", 0)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if feed.CurrentPage != 1 {
		t.Errorf("currentPage = %d, want 1", feed.CurrentPage)
	}
	if len(feed.Posts) != 3 {
		t.Errorf("posts = %d, want 3", len(feed.Posts))
	}
}
