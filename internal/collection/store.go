// Package collection holds the records behind one list screen and sequences
// gateway calls with the matching store updates.
package collection

import (
	"slices"
	"sync"

	"github.com/librarydesk/librarydesk/internal/domain"
)

// Store is an ordered, identifier-keyed list of records.
// It is safe for concurrent use.
type Store[T domain.Keyed] struct {
	recs []T
	mu   sync.RWMutex
}

// NewStore creates an empty store.
func NewStore[T domain.Keyed]() *Store[T] {
	return &Store[T]{}
}

// Reset replaces the whole collection.
func (s *Store[T]) Reset(recs []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = slices.Clone(recs)
}

// Append adds rec at the end.
func (s *Store[T]) Append(rec T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
}

// Replace swaps the record with rec's identifier for rec, keeping its
// position. It reports false and leaves the store unchanged when no record
// has that identifier.
func (s *Store[T]) Replace(rec T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(rec.Key())
	if i < 0 {
		return false
	}
	s.recs[i] = rec
	return true
}

// Upsert replaces the record with rec's identifier or appends rec.
func (s *Store[T]) Upsert(rec T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(rec.Key()); i >= 0 {
		s.recs[i] = rec
		return
	}
	s.recs = append(s.recs, rec)
}

// Remove drops every record with the given identifier. Removing an absent
// identifier is not an error; Remove reports whether anything was dropped.
func (s *Store[T]) Remove(id domain.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.recs)
	s.recs = slices.DeleteFunc(s.recs, func(r T) bool { return r.Key() == id })
	return len(s.recs) != n
}

// Get returns the record with the given identifier.
func (s *Store[T]) Get(id domain.ID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.recs[i], true
	}
	var zero T
	return zero, false
}

// Find returns the first record matching pred.
func (s *Store[T]) Find(pred func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := slices.IndexFunc(s.recs, pred); i >= 0 {
		return s.recs[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the records in order.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.recs))
	copy(out, s.recs)
	return out
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

func (s *Store[T]) index(id domain.ID) int {
	return slices.IndexFunc(s.recs, func(r T) bool { return r.Key() == id })
}
