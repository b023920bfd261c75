// Package fieldterm provides the field-term cache consulted during query
// construction: a per-field record of terms known to be worth querying.
// The query builder only performs point lookups; population and refresh
// are driven externally (Postgres or Redis loaders, Kafka invalidation).
//
// Whether a term absent from a cached set means "known to never match" or
// "unknown" depends on how the cache is populated. The builder drops such
// terms either way, so loaders must only flag a field as cached when they
// provide the complete term set for it.
package fieldterm

import (
	"context"
	"sync"
)

// Entry is the cached record for one field.
type Entry struct {
	// ShouldCache marks the field as opted into term filtering. A field
	// with ShouldCache false is never filtered.
	ShouldCache bool
	Terms       map[string]struct{}
}

// NewEntry builds an Entry from a term list.
func NewEntry(shouldCache bool, terms []string) Entry {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return Entry{ShouldCache: shouldCache, Terms: set}
}

// Contains reports whether term is in the entry's term set.
func (e Entry) Contains(term string) bool {
	_, ok := e.Terms[term]
	return ok
}

// Cache is the read interface used by the query builder. Lookup must be
// cheap and non-blocking; a miss means "do not filter".
type Cache interface {
	Lookup(field string) (Entry, bool)
}

// Loader produces a full field-term snapshot from a backing store.
type Loader interface {
	LoadAll(ctx context.Context) (map[string]Entry, error)
}

// Memory is the in-process snapshot served to the builder. It is replaced
// wholesale on refresh, so lookups may briefly observe stale entries but
// never fail or block.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty snapshot.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Lookup returns the entry for field and whether one exists.
func (m *Memory) Lookup(field string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[field]
	return e, ok
}

// ReplaceAll swaps in a new snapshot.
func (m *Memory) ReplaceAll(entries map[string]Entry) {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
}

// Set stores one entry. Intended for tests and incremental population.
func (m *Memory) Set(field string, entry Entry) {
	m.mu.Lock()
	m.entries[field] = entry
	m.mu.Unlock()
}

// Len returns the number of cached fields.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
