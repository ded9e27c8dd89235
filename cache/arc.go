// ARCCache implements the Adaptive Replacement Cache (ARC) algorithm:
// an exotic cache replacement strategy that dynamically balances between
// recency and frequency, and resists the scan patterns that defeat plain
// LRU. The dataset engine's access pattern - a matching pass that walks a
// node graph and periodically rescans popular nodes/signatures - is exactly
// the scan-plus-hot-set mix ARC was designed for.
//
// The algorithm maintains four lists:
//   - T1: recent cache misses (recency)
//   - T2: frequent items (frequency)
//   - B1: ghost entries evicted from T1 (recency history)
//   - B2: ghost entries evicted from T2 (frequency history)
//
// Entries here never expire: a Pattern dataset section is immutable for
// the lifetime of the Dataset, so there is no TTL or background cleanup
// loop to run.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"patterndataset/logger"
)

type arcEntry[V any] struct {
	key   uint32
	value V
	ghost bool
}

type arcList[V any] struct {
	list    *list.List
	entries map[uint32]*list.Element
	maxSize int
}

func newARCList[V any](maxSize int) *arcList[V] {
	return &arcList[V]{
		list:    list.New(),
		entries: make(map[uint32]*list.Element),
		maxSize: maxSize,
	}
}

func (l *arcList[V]) pushFront(key uint32, entry *arcEntry[V]) {
	l.entries[key] = l.list.PushFront(entry)
}

func (l *arcList[V]) remove(key uint32) {
	if elem, found := l.entries[key]; found {
		l.list.Remove(elem)
		delete(l.entries, key)
	}
}

// ARCCache is a capacity-bounded, indexed cache implementing Cache[V] with
// the ARC replacement algorithm in place of plain LRU.
type ARCCache[V any] struct {
	mu sync.Mutex

	t1, t2, b1, b2 *arcList[V]

	c int // target resident size (T1 + T2)
	p int // adaptation parameter: target size of T1

	hits        int64
	misses      int64
	evictions   int64
	adaptations int64
}

// NewARCCache creates an ARC cache targeting capacity resident entries.
// Ghost lists (B1, B2) are sized to capacity as well, per the standard ARC
// construction, so adaptation has enough history to work with.
func NewARCCache[V any](capacity int) *ARCCache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ARCCache[V]{
		c:  capacity,
		p:  capacity / 2,
		t1: newARCList[V](capacity),
		t2: newARCList[V](capacity),
		b1: newARCList[V](capacity),
		b2: newARCList[V](capacity),
	}
}

// Get retrieves a value, promoting it within the ARC lists per the
// algorithm's hit rules (T1 hit moves to T2; T2 hit stays in T2 and moves
// to front).
func (c *ARCCache[V]) Get(key uint32) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.t1.entries[key]; found {
		entry := elem.Value.(*arcEntry[V])
		c.t1.remove(key)
		c.t2.pushFront(key, entry)
		atomic.AddInt64(&c.hits, 1)
		logger.Debug("arc cache hit key=%d (t1->t2)", key)
		return entry.value, true
	}

	if elem, found := c.t2.entries[key]; found {
		entry := elem.Value.(*arcEntry[V])
		c.t2.list.MoveToFront(elem)
		atomic.AddInt64(&c.hits, 1)
		logger.Debug("arc cache hit key=%d (t2)", key)
		return entry.value, true
	}

	atomic.AddInt64(&c.misses, 1)
	logger.Debug("arc cache miss key=%d", key)
	return *new(V), false
}

// Put inserts or updates key, adapting the T1/T2 balance when key is found
// to have been recently evicted (a ghost hit) and evicting per the ARC
// replacement rule otherwise.
func (c *ARCCache[V]) Put(key uint32, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.t1.entries[key]; found {
		c.t1.entries[key].Value.(*arcEntry[V]).value = value
		return
	}
	if _, found := c.t2.entries[key]; found {
		c.t2.entries[key].Value.(*arcEntry[V]).value = value
		return
	}

	if _, found := c.b1.entries[key]; found {
		logger.TraceIf("cache", "arc ghost hit key=%d in b1, adapting toward recency", key)
		c.adaptForRecency()
		c.b1.remove(key)
		c.replace(key)
		c.t2.pushFront(key, &arcEntry[V]{key: key, value: value})
		return
	}
	if _, found := c.b2.entries[key]; found {
		logger.TraceIf("cache", "arc ghost hit key=%d in b2, adapting toward frequency", key)
		c.adaptForFrequency()
		c.b2.remove(key)
		c.replace(key)
		c.t2.pushFront(key, &arcEntry[V]{key: key, value: value})
		return
	}

	if c.t1.list.Len()+c.b1.list.Len() >= c.c {
		if c.t1.list.Len() < c.c {
			c.evictGhost(c.b1)
			c.replace(key)
		} else {
			c.evictLRU(c.t1, c.b1)
		}
	} else if c.t1.list.Len()+c.b1.list.Len() < c.c {
		if total := c.t1.list.Len() + c.t2.list.Len() + c.b1.list.Len() + c.b2.list.Len(); total >= c.c {
			if total == 2*c.c {
				c.evictGhost(c.b2)
			}
			c.replace(key)
		}
	}

	c.t1.pushFront(key, &arcEntry[V]{key: key, value: value})
}

// replace evicts one entry from T1 or T2 per the ARC rule, demoting it to
// the corresponding ghost list.
func (c *ARCCache[V]) replace(key uint32) {
	t1Len := c.t1.list.Len()
	if t1Len > 0 && (t1Len > c.p || (func() bool {
		_, inB2 := c.b2.entries[key]
		return t1Len == c.p && inB2
	})()) {
		c.evictLRU(c.t1, c.b1)
		return
	}
	if c.t2.list.Len() > 0 {
		c.evictLRU(c.t2, c.b2)
		return
	}
	if t1Len > 0 {
		c.evictLRU(c.t1, c.b1)
	}
}

func (c *ARCCache[V]) evictLRU(resident, ghost *arcList[V]) {
	back := resident.list.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*arcEntry[V])
	resident.remove(entry.key)
	ghost.pushFront(entry.key, &arcEntry[V]{key: entry.key, ghost: true})
	for ghost.list.Len() > ghost.maxSize {
		c.evictGhost(ghost)
	}
	atomic.AddInt64(&c.evictions, 1)
	logger.TraceIf("cache", "arc cache evict key=%d to ghost list", entry.key)
}

func (c *ARCCache[V]) evictGhost(ghost *arcList[V]) {
	back := ghost.list.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*arcEntry[V])
	ghost.remove(entry.key)
}

// adaptForRecency shifts the T1/T2 target balance toward recency after a
// ghost hit in B1.
func (c *ARCCache[V]) adaptForRecency() {
	delta := 1
	if b1, b2 := c.b1.list.Len(), c.b2.list.Len(); b1 > 0 && b2 > 0 && b1 < b2 {
		delta = b2 / b1
	}
	c.p = minInt(c.c, c.p+delta)
	atomic.AddInt64(&c.adaptations, 1)
}

// adaptForFrequency shifts the T1/T2 target balance toward frequency after
// a ghost hit in B2.
func (c *ARCCache[V]) adaptForFrequency() {
	delta := 1
	if b1, b2 := c.b1.list.Len(), c.b2.list.Len(); b1 > 0 && b2 > 0 && b2 < b1 {
		delta = b1 / b2
	}
	c.p = maxInt(0, c.p-delta)
	atomic.AddInt64(&c.adaptations, 1)
}

// Stats returns a snapshot of the cache's hit/miss/eviction counters. Size
// reports the resident (T1+T2) entry count; ghost-list bookkeeping is not
// counted against Capacity.
func (c *ARCCache[V]) Stats() Stats {
	c.mu.Lock()
	size := c.t1.list.Len() + c.t2.list.Len()
	c.mu.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return Stats{
		Size:      size,
		Capacity:  c.c,
		Hits:      hits,
		Misses:    misses,
		Evictions: atomic.LoadInt64(&c.evictions),
		HitRatio:  ratio,
	}
}

// ARCLoadingCache adapts an ARCCache into a LoadingCache[V] by binding a
// loader that runs on a miss, mirroring LRULoadingCache's contract exactly
// (including the tolerated-redundant-load behavior on a concurrent miss).
type ARCLoadingCache[V any] struct {
	cache  *ARCCache[V]
	loader LoaderFunc[V]
}

// NewARCLoadingCache wraps a fresh ARCCache with loader.
func NewARCLoadingCache[V any](capacity int, loader LoaderFunc[V]) *ARCLoadingCache[V] {
	return &ARCLoadingCache[V]{cache: NewARCCache[V](capacity), loader: loader}
}

// Get returns the cached value, loading and caching it on a miss. A loader
// error is returned unchanged and nothing is stored.
func (c *ARCLoadingCache[V]) Get(key uint32) (V, error) {
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
func (c *ARCLoadingCache[V]) Stats() Stats {
	return c.cache.Stats()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
