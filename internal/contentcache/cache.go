// Package contentcache stores fully processed group output, including
// per-encoding variants, so repeated requests skip the pipeline entirely.
//
// The cache uses sync.Map: the key space is small and stable (one key per
// group/encoding pair) while reads vastly outnumber writes once warm.
package contentcache

import (
	"sync"
	"time"
)

// Key addresses one cached variant of one group's output.
type Key struct {
	Group string
	Type  string
	// Encoding is the content encoding of the variant ("" for identity,
	// "gzip", "br").
	Encoding string
}

type entry struct {
	content  []byte
	storedAt time.Time
}

// Cache is a thread-safe content cache with optional expiry.
type Cache struct {
	entries sync.Map // Key -> *entry
	// ttl bounds an entry's lifetime. Zero means entries never expire.
	ttl time.Duration
}

// New creates a cache whose entries live at most ttl; zero means forever.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached content for a key, if present and not expired.
func (c *Cache) Get(key Key) ([]byte, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if c.ttl > 0 && time.Since(e.storedAt) >= c.ttl {
		c.entries.Delete(key)
		return nil, false
	}
	return e.content, true
}

// Put stores content under a key, replacing any previous entry.
func (c *Cache) Put(key Key, content []byte) {
	c.entries.Store(key, &entry{content: content, storedAt: time.Now()})
}

// Purge drops every entry. The watcher calls it when assets change.
func (c *Cache) Purge() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}
