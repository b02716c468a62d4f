package delivery

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tendant/medical-artists/pkg/medart"
)

const defaultCacheSize = 4096

type cacheKey struct {
	key  string
	spec medart.TransformSpec
}

type cacheEntry struct {
	url  string
	mode string
}

// CachedTransformer memoizes BuildURL. Delivery URLs are a pure function of
// key, spec and configuration, so entries never go stale. The mode is
// reported to the observer on every call, hit or miss.
type CachedTransformer struct {
	next  *Transformer
	cache *lru.Cache[cacheKey, cacheEntry]
}

var _ medart.URLBuilder = (*CachedTransformer)(nil)

// NewCached wraps next with an LRU cache of size entries
func NewCached(next *Transformer, size int) (*CachedTransformer, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedTransformer{next: next, cache: cache}, nil
}

// BuildURL returns the cached URL or builds and stores it
func (c *CachedTransformer) BuildURL(key string, spec medart.TransformSpec) string {
	k := cacheKey{key: key, spec: spec}
	entry, ok := c.cache.Get(k)
	if !ok {
		entry.url, entry.mode = c.next.build(key, spec)
		c.cache.Add(k, entry)
	}
	c.next.observer.RecordDeliveryURL(entry.mode)
	return entry.url
}

// Len returns the number of cached URLs
func (c *CachedTransformer) Len() int {
	return c.cache.Len()
}
