package service

import (
	"context"
	"testing"

	"socialcircle/internal/model"
	"socialcircle/internal/queue"
)

type inlineImageUserRepo struct {
	mockUserRepository
	inlineUsers []model.User
}

func (r *inlineImageUserRepo) ListWithInlineImages(ctx context.Context) ([]model.User, error) {
	return r.inlineUsers, nil
}

func TestMaintenanceService_CleanupImages(t *testing.T) {
	repo := &inlineImageUserRepo{
		mockUserRepository: *newMockUserRepository(),
		inlineUsers: []model.User{
			{ID: "user-1"},
			{ID: "user-2"},
			{ID: "user-3"},
		},
	}
	pub := &mockPublisher{failFor: map[string]bool{}}
	svc := NewMaintenanceService(repo, pub)

	resp, err := svc.CleanupImages(context.Background())
	if err != nil {
		t.Fatalf("CleanupImages: %v", err)
	}

	if resp.Queued != 3 {
		t.Errorf("queued = %d, want 3", resp.Queued)
	}
	if len(pub.published) != 3 {
		t.Fatalf("published = %d events, want 3", len(pub.published))
	}
	for i, e := range pub.published {
		if e.Type != queue.EventImageMigrate {
			t.Errorf("event %d type = %q, want %q", i, e.Type, queue.EventImageMigrate)
		}
		if e.UserID != repo.inlineUsers[i].ID {
			t.Errorf("event %d userID = %q, want %q", i, e.UserID, repo.inlineUsers[i].ID)
		}
	}
}

func TestMaintenanceService_CleanupImages_SkipsPublishFailures(t *testing.T) {
	repo := &inlineImageUserRepo{
		mockUserRepository: *newMockUserRepository(),
		inlineUsers: []model.User{
			{ID: "user-1"},
			{ID: "user-2"},
			{ID: "user-3"},
		},
	}
	pub := &mockPublisher{failFor: map[string]bool{"user-2": true}}
	svc := NewMaintenanceService(repo, pub)

	resp, err := svc.CleanupImages(context.Background())
	if err != nil {
		t.Fatalf("CleanupImages: %v", err)
	}

	if resp.Queued != 2 {
		t.Errorf("queued = %d, want 2", resp.Queued)
	}
	for _, e := range pub.published {
		if e.UserID == "user-2" {
			t.Errorf("failed user %q was reported as published", e.UserID)
		}
	}
}

func TestMaintenanceService_CleanupImages_NoCandidates(t *testing.T) {
	repo := &inlineImageUserRepo{mockUserRepository: *newMockUserRepository()}
	pub := &mockPublisher{}
	svc := NewMaintenanceService(repo, pub)

	resp, err := svc.CleanupImages(context.Background())
	if err != nil {
		t.Fatalf("CleanupImages: %v", err)
	}
	if resp.Queued != 0 {
		t.Errorf("queued = %d, want 0", resp.Queued)
	}
	if len(pub.published) != 0 {
		t.Errorf("published = %d events, want 0", len(pub.published))
	}
}
