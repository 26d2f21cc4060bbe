// Package optimistic holds local projections of remote collections.
//
// Writes land in a [Store] immediately. A [Coordinator] then runs the remote call and a full
// refetch whose result replaces the projection wholesale, unless a newer local write
// happened after the refetch began.
package optimistic

import (
	"slices"
	"sync"

	"github.com/desertthunder/playdeck/internal/models"
)

// Item is an entity the store can copy out to readers.
type Item[T any] interface {
	models.Entity
	Clone() T
}

// Store is a revisioned in-memory projection keyed by id. It is safe for concurrent use.
type Store[T Item[T]] struct {
	cmp func(a, b T) int

	mu    sync.RWMutex
	items map[string]T
	rev   uint64
}

// NewStore creates an empty store whose List is ordered by cmp.
func NewStore[T Item[T]](cmp func(a, b T) int) *Store[T] {
	return &Store[T]{cmp: cmp, items: make(map[string]T)}
}

// Update inserts or merges the item with id. fn receives a copy of the current item, or the
// zero value and false, and returns the item to store.
func (s *Store[T]) Update(id string, fn func(cur T, ok bool) T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[id]
	if ok {
		cur = cur.Clone()
	}
	s.items[id] = fn(cur, ok)
	s.rev++
}

// Modify changes the existing item with id in place and reports whether it was present.
func (s *Store[T]) Modify(id string, fn func(cur T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[id]
	if !ok {
		return false
	}
	cur = cur.Clone()
	fn(cur)
	s.items[id] = cur
	s.rev++
	return true
}

// Remove deletes id. Removing a missing id still counts as a write.
func (s *Store[T]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	s.rev++
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return item.Clone(), true
}

// List returns copies of every item in display order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	if s.cmp != nil {
		slices.SortStableFunc(out, s.cmp)
	}
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision counts local writes. Replace does not advance it.
func (s *Store[T]) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// Replace swaps in items fetched when the store was at rev. It reports false and keeps the
// projection when a local write happened since.
func (s *Store[T]) Replace(items []T, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev != rev {
		return false
	}

	next := make(map[string]T, len(items))
	for _, item := range items {
		next[item.Identifier()] = item.Clone()
	}
	s.items = next
	return true
}
