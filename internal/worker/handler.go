package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"socialcircle/internal/queue"
)

// ImageMigrator defines the interface for moving a user's inline profile
// image into object storage. This abstracts the media service so workers
// don't depend on it directly.
type ImageMigrator interface {
	// MigrateInlineImage uploads the user's data: URL image to object
	// storage and rewrites the profile to the public URL. A user whose
	// image is no longer inline is a no-op.
	MigrateInlineImage(ctx context.Context, userID string) error
}

// Handler processes maintenance events from the queue.
type Handler struct {
	migrator ImageMigrator
}

// NewHandler creates a new event handler.
func NewHandler(migrator ImageMigrator) *Handler {
	return &Handler{migrator: migrator}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MaintenanceEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventImageMigrate:
		err = h.handleImageMigrate(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleImageMigrate moves one user's inline image to object storage.
func (h *Handler) handleImageMigrate(ctx context.Context, event queue.MaintenanceEvent) error {
	log.Printf("[Worker] ImageMigrate: user=%s", event.UserID)

	if event.UserID == "" {
		return fmt.Errorf("image migrate event missing user id")
	}

	if err := h.migrator.MigrateInlineImage(ctx, event.UserID); err != nil {
		return fmt.Errorf("migrate image for user %s: %w", event.UserID, err)
	}

	log.Printf("[Worker] ImageMigrate DONE: user=%s", event.UserID)
	return nil
}
