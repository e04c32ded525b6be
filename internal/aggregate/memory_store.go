package aggregate

import (
	"context"
	"math/rand"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store with the same contract as the
// Redis one. It backs tests and Redis-less local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[Namespace]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory aggregate store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[Namespace]map[string]struct{})}
}

func (s *MemoryStore) Insert(_ context.Context, ns Namespace, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[ns]
	if !ok {
		set = make(map[string]struct{})
		s.sets[ns] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, ns Namespace, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets[ns], member)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, ns Namespace) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sets[ns])), nil
}

func (s *MemoryStore) RandomDraw(_ context.Context, ns Namespace, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	members := make([]string, 0, len(s.sets[ns]))
	for m := range s.sets[ns] {
		members = append(members, m)
	}
	s.mu.RUnlock()

	// Stable order first, so draws match the rank semantics of the
	// Redis implementation.
	sort.Strings(members)
	if n >= len(members) {
		return members, nil
	}
	rand.Shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})
	return members[:n], nil
}

// Members returns a sorted snapshot of a namespace. Test helper.
func (s *MemoryStore) Members(ns Namespace) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]string, 0, len(s.sets[ns]))
	for m := range s.sets[ns] {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}
