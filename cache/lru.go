package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"patterndataset/logger"
)

// lruEntry is one slot in an LRUCache's recency list.
type lruEntry[V any] struct {
	key   uint32
	value V
	elem  *list.Element
}

// LRUCache is a fixed-capacity, indexed cache with least-recently-used
// eviction. It implements Cache[V] directly (plain get/put, for the
// put-cache loader variant); wrap it with NewLRULoadingCache to get a
// LoadingCache[V] whose Get materializes a miss through a bound loader.
type LRUCache[V any] struct {
	mu       sync.Mutex
	entries  map[uint32]*lruEntry[V]
	order    *list.List
	capacity int

	hits      int64
	misses    int64
	evictions int64
}

// NewLRUCache creates a plain bounded LRU cache.
func NewLRUCache[V any](capacity int) *LRUCache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache[V]{
		entries:  make(map[uint32]*lruEntry[V], capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get returns the cached value for key, reporting whether it was present.
func (c *LRUCache[V]) Get(key uint32) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		logger.Debug("lru cache miss key=%d", key)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(entry.elem)
	atomic.AddInt64(&c.hits, 1)
	logger.Debug("lru cache hit key=%d", key)
	return entry.value, true
}

// Put inserts or updates key, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *LRUCache[V]) Put(key uint32, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.value = value
		c.order.MoveToFront(entry.elem)
		return
	}

	for len(c.entries) >= c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(*lruEntry[V])
		c.order.Remove(back)
		delete(c.entries, evicted.key)
		atomic.AddInt64(&c.evictions, 1)
		logger.TraceIf("cache", "lru cache evict key=%d for key=%d", evicted.key, key)
	}

	entry := &lruEntry[V]{key: key, value: value}
	entry.elem = c.order.PushFront(entry)
	c.entries[key] = entry
}

// Stats returns a snapshot of the cache's hit/miss/eviction counters.
func (c *LRUCache[V]) Stats() Stats {
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: atomic.LoadInt64(&c.evictions),
		HitRatio:  ratio,
	}
}

// LRULoadingCache adapts an LRUCache into a LoadingCache[V] by binding a
// loader that runs on a miss. Concurrent misses for the same key may each
// run the loader; the cache keeps whichever Put lands last, per the
// tolerated-duplicate contract of the LRU-cached loader variant.
type LRULoadingCache[V any] struct {
	cache  *LRUCache[V]
	loader LoaderFunc[V]
}

// NewLRULoadingCache wraps a fresh bounded LRU cache with loader.
func NewLRULoadingCache[V any](capacity int, loader LoaderFunc[V]) *LRULoadingCache[V] {
	return &LRULoadingCache[V]{cache: NewLRUCache[V](capacity), loader: loader}
}

// Get returns the cached value, loading and caching it on a miss. A loader
// error is returned unchanged and nothing is stored.
func (c *LRULoadingCache[V]) Get(key uint32) (V, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.loader(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Put(key, v)
	return v, nil
}

// Stats returns the underlying cache's hit/miss/eviction counters.
func (c *LRULoadingCache[V]) Stats() Stats {
	return c.cache.Stats()
}
