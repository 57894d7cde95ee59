package services

import (
	"sync"
	"sync/atomic"

	"mmmcli/internal/transform"
)

// MemoryMetadataCache is an in-process training.MetadataCache. It lets
// repeated runs in one process reuse transformed designs.
type MemoryMetadataCache struct {
	mu      sync.RWMutex
	designs map[string]*transform.Design

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryMetadataCache creates an empty cache
func NewMemoryMetadataCache() *MemoryMetadataCache {
	return &MemoryMetadataCache{designs: make(map[string]*transform.Design)}
}

// Get implements training.MetadataCache
func (c *MemoryMetadataCache) Get(key string) (*transform.Design, bool) {
	c.mu.RLock()
	d, ok := c.designs[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return d, ok
}

// Put implements training.MetadataCache
func (c *MemoryMetadataCache) Put(key string, design *transform.Design) {
	c.mu.Lock()
	c.designs[key] = design
	c.mu.Unlock()
}

// Len returns the number of cached designs.
func (c *MemoryMetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.designs)
}

// Stats returns the hit and miss counts.
func (c *MemoryMetadataCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
