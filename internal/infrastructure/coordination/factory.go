package coordination

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simpleaccounts/backend/internal/domain/coordination"
	"github.com/simpleaccounts/backend/internal/infrastructure/config"
)

// Stores bundles the coordination backends handed to the domain layer.
type Stores struct {
	Leases    coordination.LeaseStore
	Sequences coordination.SequenceStore
}

// NewStores builds lease and sequence stores per configuration. When the
// Redis backend is requested but unreachable, it falls back to in-memory
// stores so a single-instance deployment keeps working.
func NewStores(cfg *config.Config, logger *zap.Logger) *Stores {
	if cfg.Coordination.Backend != "redis" && cfg.Sequence.Backend != "redis" {
		return &Stores{
			Leases:    NewInMemoryLeaseStore(),
			Sequences: NewInMemorySequenceStore(),
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory coordination stores",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err))
		return &Stores{
			Leases:    NewInMemoryLeaseStore(),
			Sequences: NewInMemorySequenceStore(),
		}
	}

	logger.Info("using redis coordination stores", zap.String("addr", cfg.Redis.Addr()))

	stores := &Stores{
		Leases:    NewInMemoryLeaseStore(),
		Sequences: NewInMemorySequenceStore(),
	}
	if cfg.Coordination.Backend == "redis" {
		stores.Leases = NewRedisLeaseStore(client)
	}
	if cfg.Sequence.Backend == "redis" {
		stores.Sequences = NewRedisSequenceStore(client)
	}
	return stores
}

// RunLeaseSweeper deletes expired leases on a fixed interval until ctx is
// cancelled. Only meaningful for the in-memory store; the Redis store
// expires leases natively.
func RunLeaseSweeper(ctx context.Context, store coordination.LeaseStore, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("lease sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("swept expired leases", zap.Int("removed", removed))
			}
		}
	}
}
