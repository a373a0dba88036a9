// Package memory provides an in-memory ports.RunStore, the default wiring
// for one-shot CLI runs and the fake of choice in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/gantry/pkg/domain"
)

// Store keeps run records in a map.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*domain.RunResult
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*domain.RunResult)}
}

// Save stores a copy of the result.
func (s *Store) Save(ctx context.Context, result *domain.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *result
	s.runs[result.RunID] = &clone
	return nil
}

// Load retrieves a run record.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	clone := *result
	return &clone, nil
}

// List returns run IDs, most recent first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.runs[ids[i]].Started.After(s.runs[ids[j]].Started)
	})
	return ids, nil
}
