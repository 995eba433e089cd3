package coordination

import (
	"context"
	"sync"

	"github.com/simpleaccounts/backend/internal/domain/coordination"
)

// InMemorySequenceStore issues monotonically increasing numbers per series
// from a process-local map.
type InMemorySequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

var _ coordination.SequenceStore = (*InMemorySequenceStore)(nil)

// NewInMemorySequenceStore creates an in-memory sequence store
func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{counters: make(map[string]int64)}
}

func (s *InMemorySequenceStore) Next(_ context.Context, seriesKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[seriesKey]++
	return s.counters[seriesKey], nil
}

// Seed sets the counter for a series so the next allocation returns value+1.
// Used when resuming numbering from persisted documents.
func (s *InMemorySequenceStore) Seed(seriesKey string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters[seriesKey] < value {
		s.counters[seriesKey] = value
	}
}
