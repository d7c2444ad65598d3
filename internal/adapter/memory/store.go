// Package memory holds an in-process threshold cache for tests and one-shot
// command runs.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
)

// ThresholdStore keeps the last saved set of each chart in memory.
type ThresholdStore struct {
	mu    sync.Mutex
	sets  map[string]domain.ThresholdSet
	saves int
}

// NewThresholdStore returns a store seeded with initial, keyed by chart id.
// initial may be nil.
func NewThresholdStore(initial map[string]domain.ThresholdSet) *ThresholdStore {
	sets := make(map[string]domain.ThresholdSet, len(initial))
	maps.Copy(sets, initial)
	return &ThresholdStore{sets: sets}
}

func (s *ThresholdStore) Load(_ context.Context, chartID string) (*domain.ThresholdSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[chartID]
	if !ok {
		return nil, nil
	}
	return &set, nil
}

func (s *ThresholdStore) Save(_ context.Context, chartID string, set domain.ThresholdSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[chartID] = set
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *ThresholdStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
