package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the maintenance stream
const (
	EventImageMigrate = "image_migrate"
)

// Stream names
const (
	StreamMaintenance = "stream:maintenance"
)

// Consumer group name for maintenance workers
const (
	ConsumerGroupMaintenance = "maintenance_workers"
)

// MaintenanceEvent represents an event published to the maintenance stream.
// ImageMigrate events carry the id of a user whose profile image is still an
// inline data: URL and should be moved to object storage.
type MaintenanceEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// ImageMigrate event
	UserID string `json:"user_id,omitempty"`
}

// NewImageMigrateEvent creates an event for migrating one user's inline
// profile image to object storage.
func NewImageMigrateEvent(userID string) MaintenanceEvent {
	return MaintenanceEvent{
		Type:      EventImageMigrate,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e MaintenanceEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMaintenanceEvent parses a MaintenanceEvent from Redis stream message values.
func ParseMaintenanceEvent(values map[string]interface{}) (MaintenanceEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MaintenanceEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MaintenanceEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MaintenanceEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
