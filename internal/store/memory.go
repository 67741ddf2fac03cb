package store

import (
	"context"
	"sync"

	"github.com/marketscout/marketscout/internal/agent/core"
)

const defaultHistorySize = 100

// MemoryStore keeps runs in process memory. The latest run is
// overwritten unconditionally on every save; history is a bounded
// ring, newest first.
type MemoryStore struct {
	mu       sync.RWMutex
	latest   core.ResearchRun
	hasRun   bool
	history  []core.ResearchRun
	capacity int
}

// NewMemoryStore creates an in-memory store keeping at most capacity
// historical runs (0 means the default).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) SaveLatest(_ context.Context, run core.ResearchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = run
	s.hasRun = true
	s.history = append([]core.ResearchRun{run}, s.history...)
	if len(s.history) > s.capacity {
		s.history = s.history[:s.capacity]
	}
	return nil
}

func (s *MemoryStore) Latest(_ context.Context) (core.ResearchRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasRun, nil
}

func (s *MemoryStore) History(_ context.Context, limit int) ([]core.ResearchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]core.ResearchRun, limit)
	copy(out, s.history[:limit])
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
