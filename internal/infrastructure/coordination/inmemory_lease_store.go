package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/simpleaccounts/backend/internal/domain/coordination"
	"github.com/simpleaccounts/backend/internal/domain/shared"
)

// InMemoryLeaseStore keeps leases in a process-local map. Suitable for
// single-instance deployments and tests.
type InMemoryLeaseStore struct {
	mu     sync.Mutex
	leases map[string]coordination.LockLease
	clock  func() time.Time
}

var _ coordination.LeaseStore = (*InMemoryLeaseStore)(nil)

// NewInMemoryLeaseStore creates an in-memory lease store
func NewInMemoryLeaseStore() *InMemoryLeaseStore {
	return &InMemoryLeaseStore{
		leases: make(map[string]coordination.LockLease),
		clock:  time.Now,
	}
}

// NewInMemoryLeaseStoreWithClock creates a store with an injected clock,
// used by tests to simulate lease expiry without sleeping.
func NewInMemoryLeaseStoreWithClock(clock func() time.Time) *InMemoryLeaseStore {
	return &InMemoryLeaseStore{
		leases: make(map[string]coordination.LockLease),
		clock:  clock,
	}
}

// TryAcquire installs the lease if the key is free or the current holder's
// lease has expired. The check and the install happen under one mutex hold,
// so at most one contender wins.
func (s *InMemoryLeaseStore) TryAcquire(_ context.Context, lease coordination.LockLease) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.leases[lease.Key]; ok && !existing.Expired(s.clock()) {
		return false, nil
	}
	s.leases[lease.Key] = lease
	return true, nil
}

// Release removes the lease if owner matches the current live holder.
func (s *InMemoryLeaseStore) Release(_ context.Context, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.leases[key]
	if !ok || existing.Expired(s.clock()) {
		return shared.ErrNotLockOwner
	}
	if existing.Owner != owner {
		return shared.ErrNotLockOwner
	}
	delete(s.leases, key)
	return nil
}

// Get returns the live lease for key, or nil when free or expired.
func (s *InMemoryLeaseStore) Get(_ context.Context, key string) (*coordination.LockLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.leases[key]
	if !ok || existing.Expired(s.clock()) {
		return nil, nil
	}
	lease := existing
	return &lease, nil
}

// DeleteExpired removes all expired leases and returns how many were swept.
func (s *InMemoryLeaseStore) DeleteExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for key, lease := range s.leases {
		if lease.Expired(now) {
			delete(s.leases, key)
			removed++
		}
	}
	return removed, nil
}
