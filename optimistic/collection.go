// Package optimistic applies local changes to a list before the server
// confirms them and reconciles with the authoritative list when it does not.
package optimistic

import "sync"

// Collection is a list of entities keyed by id, safe for concurrent use.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	key   func(T) string
}

func NewCollection[T any](key func(T) string, items ...T) *Collection[T] {
	c := &Collection[T]{key: key}
	c.items = c.dedupe(items)
	return c
}

// Snapshot returns a copy of the current list.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Replace swaps in a whole new list. When ids repeat the first one wins.
func (c *Collection[T]) Replace(items []T) {
	deduped := c.dedupe(items)
	c.mu.Lock()
	c.items = deduped
	c.mu.Unlock()
}

// Swap replaces the list with fn's result under the lock and returns the list
// it replaced. fn receives a copy it may modify.
func (c *Collection[T]) Swap(fn func([]T) []T) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous := c.items
	c.items = c.dedupe(fn(append([]T(nil), previous...)))
	return append([]T(nil), previous...)
}

func (c *Collection[T]) dedupe(items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := c.key(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
