package coordination

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LockLease is a time-bounded ownership claim over a coordination key.
// Exactly one live lease may exist per key at any instant; a lease whose TTL
// has elapsed without release is stale and eligible for reclamation.
type LockLease struct {
	ID         uuid.UUID
	Key        string
	Owner      string
	AcquiredAt time.Time
	TTL        time.Duration
}

// ExpiresAt returns the instant after which the lease is stale
func (l LockLease) ExpiresAt() time.Time {
	return l.AcquiredAt.Add(l.TTL)
}

// Expired reports whether the lease is stale at the given instant
func (l LockLease) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt())
}

// LeaseStore is the storage strategy behind CriticalSectionLock. The same
// contract is backed by an in-memory concurrent map for single-instance
// deployments or a shared external store for multi-instance ones.
//
// Implementations must make every mutation a single atomic step (a
// compare-and-swap keyed on the prior lease's identity, never a separate
// read-then-write) so that N racing acquirers of a fresh key admit exactly one.
type LeaseStore interface {
	// TryAcquire installs the lease if the key has no live lease. A stale
	// lease at the key is atomically replaced. Returns whether the lease was
	// installed. Contention is reported through the boolean, not the error.
	TryAcquire(ctx context.Context, lease LockLease) (bool, error)

	// Release deletes the lease if owner holds it. Releasing a key held by a
	// different owner fails with shared.ErrNotLockOwner and must not remove
	// the other owner's lease; releasing a key with no live lease fails the
	// same way (the caller's lease expired and may have been reclaimed).
	Release(ctx context.Context, key, owner string) error

	// Get returns the live lease at the key, or nil when the key is free or
	// only a stale lease remains.
	Get(ctx context.Context, key string) (*LockLease, error)

	// DeleteExpired removes stale leases and returns how many were removed.
	// Reclamation stays correct without it (TryAcquire replaces stale leases
	// lazily); the sweep is storage hygiene for keys nobody re-acquires.
	DeleteExpired(ctx context.Context) (int, error)
}
