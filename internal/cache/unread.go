package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// UnreadCachePrefix is the key prefix for per-user unread hashes.
	// Each hash field is a sender id, the value is the unread count from
	// that sender.
	UnreadCachePrefix = "unread:user:"

	// UnreadCacheTTL bounds how long counters survive without activity
	// (30 days). Any message traffic refreshes it.
	UnreadCacheTTL = 30 * 24 * time.Hour
)

// UnreadCache tracks per-conversation unread message counts. Counters are
// incremented on send and reset when the receiver opens the conversation;
// they are presentation state, not the source of truth for messages.
type UnreadCache interface {
	// Increment bumps the unread counter the receiver holds for the sender.
	Increment(ctx context.Context, receiverID, senderID string) error

	// Reset clears the counter the reader holds for one sender. Opening a
	// conversation calls this.
	Reset(ctx context.Context, readerID, senderID string) error

	// GetAll returns every nonzero counter for a user keyed by sender id.
	GetAll(ctx context.Context, userID string) (map[string]int64, error)
}

// RedisUnreadCache implements UnreadCache using a Redis hash per user.
type RedisUnreadCache struct {
	client *redis.Client
}

// NewUnreadCache creates an UnreadCache backed by Redis.
func NewUnreadCache(client *redis.Client) UnreadCache {
	return &RedisUnreadCache{client: client}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("%s%s", UnreadCachePrefix, userID)
}

// Increment bumps the counter using a pipeline: HINCRBY + EXPIRE to refresh
// the TTL on every write.
func (c *RedisUnreadCache) Increment(ctx context.Context, receiverID, senderID string) error {
	key := unreadKey(receiverID)

	pipe := c.client.Pipeline()
	pipe.HIncrBy(ctx, key, senderID, 1)
	pipe.Expire(ctx, key, UnreadCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment unread count: %w", err)
	}
	return nil
}

// Reset deletes the hash field for one sender. A missing field is not an
// error; reset is idempotent.
func (c *RedisUnreadCache) Reset(ctx context.Context, readerID, senderID string) error {
	if err := c.client.HDel(ctx, unreadKey(readerID), senderID).Err(); err != nil {
		return fmt.Errorf("failed to reset unread count: %w", err)
	}
	return nil
}

// GetAll reads the whole hash. Missing key means no unread messages.
func (c *RedisUnreadCache) GetAll(ctx context.Context, userID string) (map[string]int64, error) {
	fields, err := c.client.HGetAll(ctx, unreadKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get unread counts: %w", err)
	}

	counts := make(map[string]int64, len(fields))
	for senderID, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse unread count for %s: %w", senderID, err)
		}
		if n > 0 {
			counts[senderID] = n
		}
	}
	return counts, nil
}
