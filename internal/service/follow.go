package service

import (
	"context"
	"fmt"
	"log"

	"socialcircle/internal/model"
	"socialcircle/internal/repository"
)

// FollowService manages the follow graph. The mutation endpoint is a
// toggle: it flips the edge rather than setting a target state, and
// concurrent toggles from the same user race freely. Nothing prevents a
// user from following themselves; the data layer has no such guard.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Toggle flips the follow edge from follower to followee and reports the
// resulting state.
func (s *FollowService) Toggle(ctx context.Context, followerID, followeeID string) (*model.ToggleFollowResponse, error) {
	if followeeID == "" {
		return nil, fmt.Errorf("userId is required")
	}

	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return nil, err
	}

	exists, err := s.followRepo.Exists(ctx, followerID, followeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}

	if exists {
		if err := s.followRepo.Delete(ctx, followerID, followeeID); err != nil {
			return nil, fmt.Errorf("failed to unfollow: %w", err)
		}
	} else {
		if err := s.followRepo.Create(ctx, followerID, followeeID); err != nil {
			return nil, fmt.Errorf("failed to follow: %w", err)
		}
	}

	isFollowing := !exists
	log.Printf("[Follow] Toggle OK: follower=%s followee=%s following=%t", followerID, followeeID, isFollowing)

	msg := "Unfollowed successfully"
	if isFollowing {
		msg = "Followed successfully"
	}
	return &model.ToggleFollowResponse{
		Success:     true,
		IsFollowing: isFollowing,
		Message:     msg,
	}, nil
}

// Status reports whether follower currently follows followee.
func (s *FollowService) Status(ctx context.Context, followerID, followeeID string) (*model.FollowStatusResponse, error) {
	isFollowing, err := s.followRepo.Exists(ctx, followerID, followeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}
	return &model.FollowStatusResponse{IsFollowing: isFollowing}, nil
}

// Followers lists the users following the given user, newest edge first.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]model.UserCard, error) {
	return s.followRepo.ListFollowers(ctx, userID)
}

// Following lists the users the given user follows, newest edge first.
func (s *FollowService) Following(ctx context.Context, userID string) ([]model.UserCard, error) {
	return s.followRepo.ListFollowing(ctx, userID)
}
