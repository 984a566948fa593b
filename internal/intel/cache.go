package intel

import (
	"sync"
	"time"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

// cacheEntry is one stored lookup outcome with its expiry.
type cacheEntry struct {
	outcome model.LookupOutcome
	expires time.Time
}

// resultCache stores lookup outcomes keyed by canonical URL. Successful
// outcomes live longer than error outcomes, so a transient API failure
// does not suppress lookups for the full window. The cache is bounded;
// the oldest inserted keys are evicted first.
type resultCache struct {
	mu sync.Mutex

	entries    map[string]cacheEntry
	order      []string
	maxEntries int
	successTTL time.Duration
	errorTTL   time.Duration
	now        func() time.Time
}

// newResultCache creates a cache with the default bounds.
func newResultCache() *resultCache {
	return &resultCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: config.DefaultMaxCacheEntries,
		successTTL: config.DefaultResultCacheTTL,
		errorTTL:   config.DefaultErrorCacheTTL,
		now:        time.Now,
	}
}

// get returns a cached outcome if present and unexpired.
func (c *resultCache) get(key string) (model.LookupOutcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expires) {
		return model.LookupOutcome{}, false
	}
	return entry.outcome, true
}

// put stores an outcome, evicting the oldest key when the cache is full.
// Error outcomes get the shorter TTL.
func (c *resultCache) put(key string, outcome model.LookupOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.successTTL
	if outcome.Status == model.StatusError {
		ttl = c.errorTTL
	}

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{outcome: outcome, expires: c.now().Add(ttl)}
}
