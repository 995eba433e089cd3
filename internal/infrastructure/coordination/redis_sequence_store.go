package coordination

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/simpleaccounts/backend/internal/domain/coordination"
)

const sequenceKeyPrefix = "sequence:"

// RedisSequenceStore issues sequence numbers via INCR, which is atomic on
// the server, so concurrent allocators across instances never collide.
type RedisSequenceStore struct {
	client *redis.Client
}

var _ coordination.SequenceStore = (*RedisSequenceStore)(nil)

// NewRedisSequenceStore creates a Redis-backed sequence store
func NewRedisSequenceStore(client *redis.Client) *RedisSequenceStore {
	return &RedisSequenceStore{client: client}
}

func (s *RedisSequenceStore) Next(ctx context.Context, seriesKey string) (int64, error) {
	n, err := s.client.Incr(ctx, sequenceKeyPrefix+seriesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence number: %w", err)
	}
	return n, nil
}

// Seed raises the counter to at least value, so numbering resumes above
// already-issued documents after a fresh Redis instance comes up.
func (s *RedisSequenceStore) Seed(ctx context.Context, seriesKey string, value int64) error {
	key := sequenceKeyPrefix + seriesKey
	current, err := s.client.Get(ctx, key).Int64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read sequence counter: %w", err)
	}
	if current >= value {
		return nil
	}
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to seed sequence counter: %w", err)
	}
	return nil
}
