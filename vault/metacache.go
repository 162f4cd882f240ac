package vault

import "sync"

// MetadataCache memoizes tag lookups from a MetadataSource. Invalidation is
// explicit, driven by document events, rather than time-based: the owner
// calls Invalidate when a document changes and Reset on bulk rebuilds.
type MetadataCache struct {
	source MetadataSource

	mu   sync.RWMutex
	tags map[string][]string
}

var _ MetadataSource = (*MetadataCache)(nil)

// NewMetadataCache wraps source with a cache.
func NewMetadataCache(source MetadataSource) *MetadataCache {
	return &MetadataCache{
		source: source,
		tags:   make(map[string][]string),
	}
}

// Tags returns the cached tag set for path, consulting the source on a miss.
func (c *MetadataCache) Tags(path string) []string {
	c.mu.RLock()
	cached, ok := c.tags[path]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	tags := c.source.Tags(path)

	c.mu.Lock()
	c.tags[path] = tags
	c.mu.Unlock()
	return tags
}

// Invalidate drops the cached entry for path.
func (c *MetadataCache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.tags, path)
	c.mu.Unlock()
}

// Reset drops every cached entry.
func (c *MetadataCache) Reset() {
	c.mu.Lock()
	c.tags = make(map[string][]string)
	c.mu.Unlock()
}
