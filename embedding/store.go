package embedding

import (
	"sort"
	"sync"

	"github.com/viant/lookalike/vector"
)

// Store maps entity identifiers to feature vectors of one dimension.
type Store struct {
	mu     sync.RWMutex
	dim    int
	items  map[string][]float32
	frozen bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: make(map[string][]float32)}
}

// Put inserts or overwrites id. The first vector establishes the store
// dimension; later vectors must match it.
func (s *Store) Put(id string, vec []float32) error {
	if id == "" {
		return ErrInvalidID
	}
	if len(vec) == 0 {
		return ErrEmptyVector
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrFrozen
	}
	if s.dim != 0 && len(vec) != s.dim {
		return &vector.DimensionMismatchError{Expected: s.dim, Actual: len(vec)}
	}
	s.dim = len(vec)
	s.items[id] = append([]float32(nil), vec...)
	return nil
}

// Get returns a copy of the vector stored under id.
func (s *Store) Get(id string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vec, ok := s.items[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return append([]float32(nil), vec...), nil
}

// Has reports whether id is stored.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Delete removes id and reports whether it was present. The dimension is
// released when the store becomes empty.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return false, ErrFrozen
	}
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	if len(s.items) == 0 {
		s.dim = 0
	}
	return true, nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Dim returns the established dimension, 0 for an empty store.
func (s *Store) Dim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// IDs returns all identifiers in ascending order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedIDs()
}

// Range calls fn for every entry in ascending identifier order until fn
// returns false. The vector passed to fn is shared with the store and must
// not be modified.
func (s *Store) Range(fn func(id string, vec []float32) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.sortedIDs() {
		if !fn(id, s.items[id]) {
			return
		}
	}
}

// Freeze makes the store read-only.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Clone returns an unfrozen deep copy.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := &Store{dim: s.dim, items: make(map[string][]float32, len(s.items))}
	for id, vec := range s.items {
		out.items[id] = append([]float32(nil), vec...)
	}
	return out
}

func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
