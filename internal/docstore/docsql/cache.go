package docsql

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// CacheStats represents statement cache statistics
type CacheStats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
}

// statementCache is an LRU of parsed statements keyed by query text.
// lru.Cache is not safe for concurrent use, so every access holds mu.
type statementCache struct {
	mu    sync.Mutex
	lru   *lru.Cache
	stats CacheStats
}

func newStatementCache(maxSize int) *statementCache {
	c := &statementCache{
		lru:   lru.New(maxSize),
		stats: CacheStats{MaxSize: maxSize},
	}
	c.lru.OnEvicted = c.onEvicted
	return c
}

func (c *statementCache) get(key string) (*Statement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return v.(*Statement), true
}

func (c *statementCache) add(key string, stmt *Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, stmt)
}

func (c *statementCache) snapshot() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.lru.Len()
	return stats
}

// onEvicted runs under mu, from inside lru.Add.
func (c *statementCache) onEvicted(lru.Key, interface{}) {
	c.stats.Evictions++
}
