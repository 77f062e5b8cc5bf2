package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/Shugur-Network/relaydex/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// FreshnessCache holds recently resolved relay records keyed by url.
//
// Each entry expires lifespan after it was last set; an expired entry reads as
// a miss but keeps its slot until DeleteExpired runs or capacity pushes it out.
// Inserting a new key at capacity evicts exactly one entry, the earliest inserted.
type FreshnessCache struct {
	mu       sync.Mutex
	items    *gocache.Cache
	order    *list.List // of string keys, front is oldest
	index    map[string]*list.Element
	capacity int
	lifespan time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// New returns an empty cache. Expired entries are only swept by DeleteExpired
// or RunJanitor.
func New(capacity int, lifespan time.Duration) *FreshnessCache {
	if capacity < 1 {
		capacity = 1
	}
	return &FreshnessCache{
		items:    gocache.New(lifespan, 0),
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
		capacity: capacity,
		lifespan: lifespan,
	}
}

// Get returns a copy of the live entry for url.
func (c *FreshnessCache) Get(url string) (*models.Relay, bool) {
	v, ok := c.items.Get(url)
	if !ok {
		c.misses.Add(1)
		metrics.CacheMisses.Inc()
		return nil, false
	}
	c.hits.Add(1)
	metrics.CacheHits.Inc()
	return v.(*models.Relay).Clone(), true
}

// Peek is Get without counting a hit or a miss.
func (c *FreshnessCache) Peek(url string) (*models.Relay, bool) {
	v, ok := c.items.Get(url)
	if !ok {
		return nil, false
	}
	return v.(*models.Relay).Clone(), true
}

// Set stores a copy of relay under url and restarts its lifespan. A key that
// is already present moves to the back of the eviction order.
func (c *FreshnessCache) Set(url string, relay *models.Relay) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.index[url]; exists {
		c.order.MoveToBack(e)
	} else {
		if c.order.Len() >= c.capacity {
			c.evictOldest()
		}
		c.index[url] = c.order.PushBack(url)
	}
	c.items.Set(url, relay.Clone(), c.lifespan)
	metrics.CacheEntries.Set(float64(c.order.Len()))
}

// Len counts entries holding a slot, expired ones included.
func (c *FreshnessCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// DeleteExpired frees the slots of expired entries.
func (c *FreshnessCache) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for e := c.order.Front(); e != nil; {
		next := e.Next()
		key := e.Value.(string)
		if _, live := c.items.Get(key); !live {
			c.order.Remove(e)
			delete(c.index, key)
			removed++
		}
		e = next
	}
	c.items.DeleteExpired()
	metrics.CacheEntries.Set(float64(c.order.Len()))
	return removed
}

// RunJanitor sweeps expired entries every interval until ctx is done.
func (c *FreshnessCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.DeleteExpired()
		}
	}
}

// Stats returns the current counters.
func (c *FreshnessCache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// evictOldest must be called with mu held.
func (c *FreshnessCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string)
	c.order.Remove(front)
	delete(c.index, key)
	c.items.Delete(key)
	c.evictions.Add(1)
	metrics.CacheEvictions.Inc()
}
