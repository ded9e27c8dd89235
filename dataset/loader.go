package dataset

import (
	"fmt"

	"patterndataset/cache"
)

// Loader materializes the entity for one section-local key, hiding which of
// the three loader variants (direct, LRU-cached, put-cache) backs it.
type Loader[T Entity] interface {
	Load(key uint32) (T, error)
}

// seekFor computes the absolute reader position for key within a section,
// given whether its factory reports a fixed record size. Fixed sections
// index by record number; variable sections index by byte offset.
func seekFor(header Header, recordSize uint32, fixed bool, key uint32) (int64, error) {
	if fixed {
		if key >= header.Count {
			return 0, ErrInvalidIndex
		}
		return int64(header.Start) + int64(key)*int64(recordSize), nil
	}
	if uint64(key) >= uint64(header.ByteLength) {
		return 0, ErrInvalidIndex
	}
	return int64(header.Start) + int64(key), nil
}

// DirectLoader materializes every call from the file, borrowing a Reader
// from the pool, seeking, invoking the factory, and releasing the Reader.
// It is always safe under concurrent callers since each call owns its own
// reader for the duration of the materialization.
type DirectLoader[T Entity] struct {
	ds         *Dataset
	pool       *ReaderPool
	header     Header
	factory    Factory[T]
	recordSize uint32
	fixed      bool
}

// NewDirectLoader builds a DirectLoader for a section. recordSize is
// ignored (and may be 0) when fixed is false. ds is the owning Dataset,
// stored on every entity the loader materializes so cross-references
// resolve lazily.
func NewDirectLoader[T Entity](ds *Dataset, pool *ReaderPool, header Header, factory Factory[T], recordSize uint32, fixed bool) *DirectLoader[T] {
	return &DirectLoader[T]{ds: ds, pool: pool, header: header, factory: factory, recordSize: recordSize, fixed: fixed}
}

func (l *DirectLoader[T]) Load(key uint32) (T, error) {
	var zero T
	offset, err := seekFor(l.header, l.recordSize, l.fixed, key)
	if err != nil {
		return zero, err
	}

	var entity T
	err = l.pool.WithReader(func(r Reader) error {
		if err := r.Seek(offset); err != nil {
			return err
		}
		e, err := l.factory.Create(l.ds, key, r)
		if err != nil {
			return err
		}
		entity = e
		return nil
	})
	if err != nil {
		return zero, fmt.Errorf("load key %d: %w", key, err)
	}
	return entity, nil
}

// CachedLoader wraps a DirectLoader behind a loading cache: a Load call is
// a single cache Get that either hits or triggers the direct path as the
// cache's bound loader. Concurrent misses for the same key may each run
// the direct path; whichever Put lands last is kept - tolerated redundancy,
// never corruption. The eviction strategy (LRU or ARC) is selected at
// construction time through CacheKind and otherwise invisible to callers.
type CachedLoader[T Entity] struct {
	cache cache.LoadingCache[T]
}

// NewCachedLoader builds a CachedLoader with the given capacity and
// eviction strategy, backed by direct.
func NewCachedLoader[T Entity](direct *DirectLoader[T], capacity int, kind CacheKind) *CachedLoader[T] {
	var lc cache.LoadingCache[T]
	if kind == CacheKindARC {
		lc = cache.NewARCLoadingCache[T](capacity, direct.Load)
	} else {
		lc = cache.NewLRULoadingCache[T](capacity, direct.Load)
	}
	return &CachedLoader[T]{cache: lc}
}

func (l *CachedLoader[T]) Load(key uint32) (T, error) {
	return l.cache.Get(key)
}

// Stats exposes the underlying cache's hit/miss/eviction counters.
func (l *CachedLoader[T]) Stats() cache.Stats { return l.cache.Stats() }

// PutCacheLoader performs an explicit two-step lookup against a
// caller-supplied Cache[T]: check, then on a miss, load directly and Put.
// This is the variant a caller-supplied cache (e.g. a write-through
// distributed cache) is wired through, since it only needs the plain
// Cache[T] capability rather than owning a loader callback itself.
type PutCacheLoader[T Entity] struct {
	cache  cache.Cache[T]
	direct *DirectLoader[T]
}

// NewPutCacheLoader builds a PutCacheLoader over a caller-supplied cache.
func NewPutCacheLoader[T Entity](c cache.Cache[T], direct *DirectLoader[T]) *PutCacheLoader[T] {
	return &PutCacheLoader[T]{cache: c, direct: direct}
}

func (l *PutCacheLoader[T]) Load(key uint32) (T, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}
	v, err := l.direct.Load(key)
	if err != nil {
		var zero T
		return zero, err
	}
	l.cache.Put(key, v)
	return v, nil
}
