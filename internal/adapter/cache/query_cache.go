package cache

import (
	"encoding/binary"
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-crypt/x/blake2b"

	"qualrag/internal/domain"
)

// QueryCache is a bounded LRU of final search results with a TTL. Entries
// written before the last Invalidate are never returned.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time
}

type cacheEntry struct {
	results   []domain.QueryResult
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(req domain.SearchRequest) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(strings.TrimSpace(req.Query)))
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(req.TopK))
	h.Write(k[:])
	h.Write([]byte(req.Category))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *QueryCache) Get(req domain.SearchRequest) ([]domain.QueryResult, bool) {
	key := cacheKey(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return slices.Clone(entry.results), true
}

func (c *QueryCache) Put(req domain.SearchRequest, results []domain.QueryResult) {
	key := cacheKey(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{
		results:   slices.Clone(results),
		timestamp: c.now(),
		indexGen:  c.indexGen,
	}
	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry; call it whenever the index is replaced.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
