package catalog

import (
	"sync"
)

// Metadata is the authoritative answer for one lookup. Immutable once
// produced; cached by value.
type Metadata struct {
	CatalogNumber string
	Year          string
	Album         string
	CoverImage    string
	Thumb         string
}

// Cache holds resolution verdicts for the process lifetime: resolved
// metadata keyed by lookup, plus the set of lookups known to have failed.
// A key lives in at most one of the two maps. One mutex guards both and is
// held only for map operations, never across I/O.
type Cache struct {
	mu       sync.Mutex
	resolved map[Key]Metadata
	failed   map[Key]struct{}
}

// NewCache creates an empty verdict cache.
func NewCache() *Cache {
	return &Cache{
		resolved: make(map[Key]Metadata),
		failed:   make(map[Key]struct{}),
	}
}

// Outcome describes what the cache knows about a key.
type Outcome int

const (
	// OutcomeUnknown means the key has never been resolved.
	OutcomeUnknown Outcome = iota
	// OutcomeResolved means metadata is cached for the key.
	OutcomeResolved
	// OutcomeFailed means the key is known to have no match.
	OutcomeFailed
)

// Lookup consults the primary key and, for resolved entries only, the
// fallback key (the album-artist variant). The fallback is read-only: it is
// never written and never consulted for failed verdicts.
func (c *Cache) Lookup(primary, fallback Key) (Metadata, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !primary.IsZero() {
		if meta, ok := c.resolved[primary]; ok {
			return meta, OutcomeResolved
		}
		if _, ok := c.failed[primary]; ok {
			return Metadata{}, OutcomeFailed
		}
	}
	if !fallback.IsZero() && fallback != primary {
		if meta, ok := c.resolved[fallback]; ok {
			return meta, OutcomeResolved
		}
	}
	return Metadata{}, OutcomeUnknown
}

// StoreResolved records a successful verdict, displacing any failed entry
// for the same key.
func (c *Cache) StoreResolved(key Key, meta Metadata) {
	if key.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failed, key)
	c.resolved[key] = meta
}

// StoreFailed records a definitive no-match verdict, displacing any
// resolved entry for the same key.
func (c *Cache) StoreFailed(key Key) {
	if key.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolved, key)
	c.failed[key] = struct{}{}
}

// Entry pairs a key with its verdict for listing and persistence.
type Entry struct {
	Key      Key
	Metadata Metadata
	Failed   bool
}

// Entries returns a copy of every cached verdict.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, len(c.resolved)+len(c.failed))
	for key, meta := range c.resolved {
		entries = append(entries, Entry{Key: key, Metadata: meta})
	}
	for key := range c.failed {
		entries = append(entries, Entry{Key: key, Failed: true})
	}
	return entries
}

// Clear empties both maps.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = make(map[Key]Metadata)
	c.failed = make(map[Key]struct{})
}

// Len returns the resolved and failed entry counts.
func (c *Cache) Len() (resolved, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resolved), len(c.failed)
}
