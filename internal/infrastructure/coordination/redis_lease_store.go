package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/simpleaccounts/backend/internal/domain/coordination"
	"github.com/simpleaccounts/backend/internal/domain/shared"
)

const leaseKeyPrefix = "lease:"

// releaseScript deletes the lease only when the stored owner matches.
// The compare and the delete must be one atomic step; doing GET then DEL
// from the client would let a reclaimed lease be deleted by the old owner.
var releaseScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return -1
end
local lease = cjson.decode(raw)
if lease.owner ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// RedisLeaseStore keeps leases in Redis with native key expiry, so stale
// leases vanish without a sweeper and the lock works across instances.
type RedisLeaseStore struct {
	client *redis.Client
}

var _ coordination.LeaseStore = (*RedisLeaseStore)(nil)

// NewRedisLeaseStore creates a Redis-backed lease store
func NewRedisLeaseStore(client *redis.Client) *RedisLeaseStore {
	return &RedisLeaseStore{client: client}
}

type redisLease struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Owner      string `json:"owner"`
	AcquiredAt int64  `json:"acquired_at"`
	TTLMillis  int64  `json:"ttl_ms"`
}

func (s *RedisLeaseStore) TryAcquire(ctx context.Context, lease coordination.LockLease) (bool, error) {
	payload, err := json.Marshal(redisLease{
		ID:         lease.ID.String(),
		Key:        lease.Key,
		Owner:      lease.Owner,
		AcquiredAt: lease.AcquiredAt.UnixMilli(),
		TTLMillis:  lease.TTL.Milliseconds(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal lease: %w", err)
	}

	ok, err := s.client.SetNX(ctx, leaseKeyPrefix+lease.Key, payload, lease.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}
	return ok, nil
}

func (s *RedisLeaseStore) Release(ctx context.Context, key, owner string) error {
	res, err := releaseScript.Run(ctx, s.client, []string{leaseKeyPrefix + key}, owner).Int()
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	if res != 1 {
		return shared.ErrNotLockOwner
	}
	return nil
}

func (s *RedisLeaseStore) Get(ctx context.Context, key string) (*coordination.LockLease, error) {
	raw, err := s.client.Get(ctx, leaseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lease: %w", err)
	}

	var stored redisLease
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lease: %w", err)
	}
	lease, err := stored.toDomain()
	if err != nil {
		return nil, err
	}
	return lease, nil
}

func (l redisLease) toDomain() (*coordination.LockLease, error) {
	id, err := uuid.Parse(l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lease id: %w", err)
	}
	return &coordination.LockLease{
		ID:         id,
		Key:        l.Key,
		Owner:      l.Owner,
		AcquiredAt: time.UnixMilli(l.AcquiredAt),
		TTL:        time.Duration(l.TTLMillis) * time.Millisecond,
	}, nil
}

// DeleteExpired is a no-op: Redis evicts expired leases itself.
func (s *RedisLeaseStore) DeleteExpired(_ context.Context) (int, error) {
	return 0, nil
}
