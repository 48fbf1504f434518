package service

import (
	"context"
	"fmt"
	"log"

	"socialcircle/internal/model"
	"socialcircle/internal/queue"
	"socialcircle/internal/repository"
)

// MaintenanceService queues background cleanup work. Image migration runs
// through the maintenance stream so the HTTP request returns as soon as the
// work is enqueued.
type MaintenanceService struct {
	userRepo  repository.UserRepository
	publisher queue.Publisher
}

func NewMaintenanceService(userRepo repository.UserRepository, publisher queue.Publisher) *MaintenanceService {
	return &MaintenanceService{
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// CleanupImages finds every user still carrying a legacy inline data: URL
// image and queues one migration event per user. Returns how many were
// queued; users whose event could not be published are skipped and picked
// up by the next run.
func (s *MaintenanceService) CleanupImages(ctx context.Context) (*model.CleanupImagesResponse, error) {
	users, err := s.userRepo.ListWithInlineImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with inline images: %w", err)
	}

	queued := 0
	for _, u := range users {
		if _, err := s.publisher.Publish(ctx, queue.StreamMaintenance, queue.NewImageMigrateEvent(u.ID)); err != nil {
			log.Printf("[Maintenance] CleanupImages publish FAILED: user=%s err=%v", u.ID, err)
			continue
		}
		queued++
	}

	log.Printf("[Maintenance] CleanupImages OK: candidates=%d queued=%d", len(users), queued)

	return &model.CleanupImagesResponse{
		Message: fmt.Sprintf("Queued %d image migrations", queued),
		Queued:  queued,
	}, nil
}
