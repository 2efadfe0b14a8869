package pages

import (
	"sync"

	"github.com/orgwiki/orgwiki/pkg/observability"
)

// NameCache is the process-wide bidirectional mapping between organization
// names and ids. Entries are appended as organizations are discovered and
// never evicted or invalidated: org names and ids are immutable for the
// process lifetime, so a stale-forever cache is safe. Concurrent writers
// racing to insert the same key write identical values, so last-write-wins
// is harmless.
type NameCache struct {
	mu      sync.RWMutex
	byID    map[string]string
	byName  map[string]string
	metrics *observability.Metrics
}

// NewNameCache creates an empty name cache
func NewNameCache(metrics *observability.Metrics) *NameCache {
	return &NameCache{
		byID:    make(map[string]string),
		byName:  make(map[string]string),
		metrics: metrics,
	}
}

// Put records an organization's name and id in both directions
func (c *NameCache) Put(orgID, name string) {
	c.mu.Lock()
	c.byID[orgID] = name
	c.byName[name] = orgID
	n := len(c.byID)
	c.mu.Unlock()
	c.metrics.SetNameCacheEntries(n)
}

// IDForName returns the org id for a fully-qualified name
func (c *NameCache) IDForName(name string) (string, bool) {
	c.mu.RLock()
	id, ok := c.byName[name]
	c.mu.RUnlock()
	c.metrics.ObserveNameCacheLookup(ok)
	return id, ok
}

// NameForID returns the fully-qualified name for an org id
func (c *NameCache) NameForID(orgID string) (string, bool) {
	c.mu.RLock()
	name, ok := c.byID[orgID]
	c.mu.RUnlock()
	c.metrics.ObserveNameCacheLookup(ok)
	return name, ok
}

// Len returns the number of cached organizations
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
