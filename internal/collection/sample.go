package collection

import "math/rand"

// Set is a deduplicating ID accumulator that preserves insertion order.
// Order matters only so that resumable steps rebuild identical state;
// final selection always goes through ShuffleTrim.
type Set struct {
	seen map[string]struct{}
	ids  []string
}

// NewSet creates a set seeded with the given IDs, in order, dropping
// duplicates.
func NewSet(ids ...string) *Set {
	s := &Set{seen: make(map[string]struct{}, len(ids))}
	s.Add(ids...)
	return s
}

// Add appends every ID not already present.
func (s *Set) Add(ids ...string) {
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// Contains reports membership.
func (s *Set) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of distinct IDs.
func (s *Set) Len() int { return len(s.ids) }

// IDs returns the accumulated IDs in insertion order. The returned
// slice is the set's backing storage; callers must not mutate it.
func (s *Set) IDs() []string { return s.ids }

// Subtract returns the IDs (in order) not present in remove.
func Subtract(ids []string, remove *Set) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if remove == nil || !remove.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// ShuffleTrim returns at most max IDs drawn uniformly from ids via a
// Fisher-Yates shuffle. A plain prefix take would bias toward insertion
// order, so an overshoot is always permuted first. The input slice is
// not modified.
func ShuffleTrim(ids []string, max int, rng *rand.Rand) []string {
	if max < 0 {
		max = 0
	}
	out := make([]string, len(ids))
	copy(out, ids)
	if len(out) <= max {
		return out
	}
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out[:max]
}
