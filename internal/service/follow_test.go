package service

import (
	"context"
	"errors"
	"testing"

	"socialcircle/internal/model"
)

func followTestUsers() *mockUserRepository {
	return &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if id == "alice" || id == "bob" {
				return &model.User{ID: id, Name: id}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
}

func TestFollowService_Toggle_FlipsEdge(t *testing.T) {
	followRepo := newMockFollowRepository()
	svc := NewFollowService(followRepo, followTestUsers())

	resp, err := svc.Toggle(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !resp.IsFollowing {
		t.Error("first toggle should create the edge")
	}

	status, err := svc.Status(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsFollowing {
		t.Error("status should report following after first toggle")
	}

	resp, err = svc.Toggle(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if resp.IsFollowing {
		t.Error("second toggle should remove the edge")
	}

	// Two toggles return to the original state
	status, _ = svc.Status(context.Background(), "alice", "bob")
	if status.IsFollowing {
		t.Error("edge should be gone after an even number of toggles")
	}
}

func TestFollowService_Toggle_UnknownFollowee(t *testing.T) {
	svc := NewFollowService(newMockFollowRepository(), followTestUsers())

	_, err := svc.Toggle(context.Background(), "alice", "ghost")
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestFollowService_Toggle_SelfFollowAllowed(t *testing.T) {
	// The data layer has no self-follow guard; toggling your own id
	// creates a real edge.
	followRepo := newMockFollowRepository()
	svc := NewFollowService(followRepo, followTestUsers())

	resp, err := svc.Toggle(context.Background(), "alice", "alice")
	if err != nil {
		t.Fatalf("self toggle: %v", err)
	}
	if !resp.IsFollowing {
		t.Error("self-follow edge should be created")
	}
}
