package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PresenceRepo keeps typing flags in Redis keyed per (conversation, user)
// with a TTL, so stale state cannot outlive a crashed client.
type PresenceRepo struct {
	client *redis.Client
}

func NewPresenceRepo(client *redis.Client) *PresenceRepo {
	return &PresenceRepo{client: client}
}

func typingKey(conversationID, userID uuid.UUID) string {
	return fmt.Sprintf("typing:%s:%s", conversationID, userID)
}

func (r *PresenceRepo) SetTyping(ctx context.Context, conversationID, userID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, typingKey(conversationID, userID), "1", ttl).Err()
}

func (r *PresenceRepo) ClearTyping(ctx context.Context, conversationID, userID uuid.UUID) error {
	return r.client.Del(ctx, typingKey(conversationID, userID)).Err()
}

func (r *PresenceRepo) ListTyping(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	pattern := fmt.Sprintf("typing:%s:*", conversationID)

	var userIDs []uuid.UUID
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			idx := strings.LastIndex(key, ":")
			if idx < 0 {
				continue
			}
			userID, err := uuid.Parse(key[idx+1:])
			if err != nil {
				continue
			}
			userIDs = append(userIDs, userID)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return userIDs, nil
}
