package dataset

import (
	"fmt"

	"patterndataset/cache"
	"patterndataset/logger"
)

// IntTable is a densely packed array of 32-bit words, the shape shared by
// the three v3.2 side tables (signature_node_offsets,
// node_ranked_signature_indexes, ranked_signature_indexes). Only
// addressability and immutability are required of the backing section; this
// implementation serves every Get through the reader pool, optionally
// behind an LRU cache, rather than resident-loading - these tables can run
// to millions of entries and are accessed sparsely relative to their size.
type IntTable struct {
	ds     *Dataset
	pool   *ReaderPool
	header Header
	cache  *cache.LRULoadingCache[uint32]
}

// NewIntTable builds an IntTable over header. If capacity > 0, lookups are
// served through an LRU cache of that capacity; otherwise every Get reads
// through the pool directly.
func NewIntTable(ds *Dataset, pool *ReaderPool, header Header, capacity int) *IntTable {
	t := &IntTable{ds: ds, pool: pool, header: header}
	if capacity > 0 {
		t.cache = cache.NewLRULoadingCache[uint32](capacity, t.load)
	}
	return t
}

// Size returns the number of packed words in the table.
func (t *IntTable) Size() int { return int(t.header.Count) }

// Get returns the i-th packed word.
func (t *IntTable) Get(i uint32) (uint32, error) {
	if i >= t.header.Count {
		return 0, ErrInvalidIndex
	}
	if t.cache != nil {
		return t.cache.Get(i)
	}
	return t.load(i)
}

func (t *IntTable) load(i uint32) (uint32, error) {
	logger.TraceIf("sidetable", "side table direct read index=%d start=%d", i, t.header.Start)
	var v uint32
	err := t.pool.WithReader(func(r Reader) error {
		if err := r.Seek(int64(t.header.Start) + int64(i)*4); err != nil {
			return err
		}
		val, err := r.ReadUint32()
		if err != nil {
			return err
		}
		v = val
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("side table entry %d: %w", i, err)
	}
	return v, nil
}
