package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 10 * time.Second

	defaultShards = 32
)

type Limiter struct {
	clock  clockwork.Clock
	shards []*limiterShard
}

type limiterShard struct {
	mu      sync.Mutex
	clients map[string]*client
}

// client serializes increments for one key; different keys never share a
// lock beyond the brief shard lookup.
type client struct {
	mu       sync.Mutex
	buckets  map[int64]int
	lastSeen atomic.Int64
}

type Option func(*Limiter)

func WithClock(clock clockwork.Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func WithShards(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.shards = make([]*limiterShard, n)
		}
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		clock:  clockwork.NewRealClock(),
		shards: make([]*limiterShard, defaultShards),
	}
	for _, opt := range opts {
		opt(l)
	}
	for i := range l.shards {
		l.shards[i] = &limiterShard{clients: make(map[string]*client)}
	}
	return l
}

func (l *Limiter) shardFor(key string) *limiterShard {
	return l.shards[xxhash.Sum64String(key)%uint64(len(l.shards))]
}

// clientFor returns the state for key and marks it seen at now. The mark is
// made under the shard lock so a concurrent Sweep cannot drop the client
// before the caller has counted against it.
func (l *Limiter) clientFor(key string, now time.Time) *client {
	sh := l.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	c, ok := sh.clients[key]
	if !ok {
		c = &client{buckets: make(map[int64]int, 2)}
		sh.clients[key] = c
	}
	c.lastSeen.Store(now.UnixNano())
	return c
}

// Allow applies the default policy of DefaultLimit requests per DefaultWindow.
func (l *Limiter) Allow(clientID string) bool {
	return l.IsAllowed(clientID, DefaultLimit, DefaultWindow)
}

// IsAllowed counts this request against clientID's current bucket and
// reports whether the count is still within limit. Rejections are immediate;
// nothing is queued.
func (l *Limiter) IsAllowed(clientID string, limit int, window time.Duration) bool {
	width := window.Milliseconds()
	if width <= 0 {
		width = DefaultWindow.Milliseconds()
	}
	now := l.clock.Now()
	bucket := (now.UnixMilli() / width) * width

	c := l.clientFor(clientID, now)
	c.mu.Lock()
	c.buckets[bucket]++
	count := c.buckets[bucket]
	for start := range c.buckets {
		if start < bucket-width {
			delete(c.buckets, start)
		}
	}
	c.mu.Unlock()

	return count <= limit
}

// Buckets reports how many window buckets are retained for clientID.
func (l *Limiter) Buckets(clientID string) int {
	sh := l.shardFor(clientID)
	sh.mu.Lock()
	c, ok := sh.clients[clientID]
	sh.mu.Unlock()
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// Sweep forgets clients not seen for longer than idle. idle should be at
// least one window so live buckets are never dropped.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.clock.Now().Add(-idle).UnixNano()
	removed := 0
	for _, sh := range l.shards {
		sh.mu.Lock()
		for key, c := range sh.clients {
			if c.lastSeen.Load() < cutoff {
				delete(sh.clients, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (l *Limiter) Len() int {
	n := 0
	for _, sh := range l.shards {
		sh.mu.Lock()
		n += len(sh.clients)
		sh.mu.Unlock()
	}
	return n
}
