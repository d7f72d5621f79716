package wordsource

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ValidationCache remembers upstream verdicts for words. Get reports
// found=false on a miss.
type ValidationCache interface {
	Get(ctx context.Context, word string) (valid, found bool)
	Set(ctx context.Context, word string, valid bool)
}

const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = time.Hour
)

// MemoryCache is a bounded LRU whose entries expire a fixed time after their
// last access.
type MemoryCache struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	clock   clockwork.Clock
	order   *list.List
	entries map[string]*list.Element
}

type cacheItem struct {
	word       string
	valid      bool
	lastAccess time.Time
}

func NewMemoryCache(size int, ttl time.Duration, clock clockwork.Clock) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		size:    size,
		ttl:     ttl,
		clock:   clock,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *MemoryCache) Get(_ context.Context, word string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[word]
	if !ok {
		return false, false
	}
	item := el.Value.(*cacheItem)
	now := c.clock.Now()
	if now.Sub(item.lastAccess) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, word)
		return false, false
	}
	item.lastAccess = now
	c.order.MoveToFront(el)
	return item.valid, true
}

func (c *MemoryCache) Set(_ context.Context, word string, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if el, ok := c.entries[word]; ok {
		item := el.Value.(*cacheItem)
		item.valid = valid
		item.lastAccess = now
		c.order.MoveToFront(el)
		return
	}
	c.entries[word] = c.order.PushFront(&cacheItem{word: word, valid: valid, lastAccess: now})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).word)
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
