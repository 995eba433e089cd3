package coordination

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CriticalSectionLock is a named, owner-tagged, lease-based mutual-exclusion
// primitive. It serializes long-running financial operations (reconciliation
// runs, payroll runs) across concurrent actors: per key, successful
// acquisitions are totally ordered; across keys there is no ordering at all.
//
// TryAcquire never blocks and contention is never an error. Callers that want
// backoff poll at their own discretion. A caller that crashes without
// releasing simply lets its lease expire; the next acquirer reclaims it.
type CriticalSectionLock struct {
	store  LeaseStore
	clock  func() time.Time
	logger *zap.Logger
}

// LockOption is a functional option for configuring CriticalSectionLock
type LockOption func(*CriticalSectionLock)

// WithClock overrides the time source (used by tests to age leases)
func WithClock(clock func() time.Time) LockOption {
	return func(l *CriticalSectionLock) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLockLogger sets the logger
func WithLockLogger(logger *zap.Logger) LockOption {
	return func(l *CriticalSectionLock) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewCriticalSectionLock creates a lock over the given lease store
func NewCriticalSectionLock(store LeaseStore, opts ...LockOption) *CriticalSectionLock {
	l := &CriticalSectionLock{
		store:  store,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryAcquire attempts to take the key for owner with the given TTL. It
// returns true when the lease was installed, false when somebody else holds a
// live lease. The error return is reserved for storage faults.
func (l *CriticalSectionLock) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	lease := LockLease{
		ID:         uuid.New(),
		Key:        key,
		Owner:      owner,
		AcquiredAt: l.clock(),
		TTL:        ttl,
	}
	acquired, err := l.store.TryAcquire(ctx, lease)
	if err != nil {
		return false, err
	}
	if acquired {
		l.logger.Debug("lease acquired",
			zap.String("key", key),
			zap.String("owner", owner),
			zap.Duration("ttl", ttl),
		)
	}
	return acquired, nil
}

// Release gives the key back. Only the current owner may release; anything
// else is a programming error surfaced as shared.ErrNotLockOwner. In
// particular a slow caller whose lease expired and was reclaimed gets the
// ownership error instead of silently releasing the new owner's lease.
func (l *CriticalSectionLock) Release(ctx context.Context, key, owner string) error {
	if err := l.store.Release(ctx, key, owner); err != nil {
		return err
	}
	l.logger.Debug("lease released",
		zap.String("key", key),
		zap.String("owner", owner),
	)
	return nil
}

// OwnerOf returns the current live owner of the key, if any
func (l *CriticalSectionLock) OwnerOf(ctx context.Context, key string) (string, bool, error) {
	lease, err := l.store.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if lease == nil {
		return "", false, nil
	}
	return lease.Owner, true, nil
}

// IsHeldBy reports whether owner currently holds a live lease on the key
func (l *CriticalSectionLock) IsHeldBy(ctx context.Context, key, owner string) (bool, error) {
	current, held, err := l.OwnerOf(ctx, key)
	if err != nil {
		return false, err
	}
	return held && current == owner, nil
}
