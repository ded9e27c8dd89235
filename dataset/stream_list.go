package dataset

import "fmt"

// StreamList is a lazy random-access array over a section: Get materializes
// through a Loader (direct, LRU-cached, or put-cache - see loader.go)
// rather than holding every record resident. Variable-length sections are
// always backed by a StreamList; fixed-length sections use one only when
// the section is too large to justify full residency (see MemoryFixedList).
type StreamList[T Entity] struct {
	ds      *Dataset
	header  Header
	loader  Loader[T]
	factory Factory[T]
	fixed   bool
}

// NewStreamList builds a StreamList over header, served by loader.
func NewStreamList[T Entity](ds *Dataset, header Header, factory Factory[T], loader Loader[T], fixed bool) *StreamList[T] {
	return &StreamList[T]{ds: ds, header: header, loader: loader, factory: factory, fixed: fixed}
}

// Size returns the section's logical record count.
func (l *StreamList[T]) Size() int { return int(l.header.Count) }

// Get materializes the entity for key: a record number for a fixed
// section, a byte offset within the section for a variable one.
func (l *StreamList[T]) Get(key uint32) (T, error) {
	return l.loader.Load(key)
}

// Iterator returns a fresh, forward-only cursor over the section. Each
// call returns an independent cursor; a cursor is not restartable mid
// stream, and the section does not support removal or mutation.
func (l *StreamList[T]) Iterator() (*Cursor[T], error) {
	r, err := l.ds.readerPool.Get()
	if err != nil {
		return nil, err
	}
	if err := r.Seek(int64(l.header.Start)); err != nil {
		l.ds.readerPool.Put(r)
		return nil, err
	}
	return &Cursor[T]{
		ds:      l.ds,
		header:  l.header,
		factory: l.factory,
		reader:  r,
		fixed:   l.fixed,
	}, nil
}

// Cursor walks a section sequentially, producing exactly header.Count
// entities and then stopping. For a variable-length section the next
// record's position cannot be known until the current one has been
// materialized, since record size depends on its contents; the cursor
// therefore advances by factory.EntityLength(entity) after each Next.
type Cursor[T Entity] struct {
	ds       *Dataset
	header   Header
	factory  Factory[T]
	reader   Reader
	fixed    bool
	produced uint32
	position uint32 // byte offset for variable sections; unused for fixed
	closed   bool
}

// Next returns the next entity, or ok == false once header.Count entities
// have been produced. The caller must inspect err before ok: a
// materialization failure terminates the cursor and the error propagates.
func (c *Cursor[T]) Next() (entity T, ok bool, err error) {
	if c.closed || c.produced >= c.header.Count {
		return entity, false, nil
	}

	var key uint32
	if c.fixed {
		key = c.produced
	} else {
		key = c.position
	}

	entity, err = c.factory.Create(c.ds, key, c.reader)
	if err != nil {
		c.Close()
		return entity, false, fmt.Errorf("iterate record %d: %w", c.produced, err)
	}

	c.produced++
	if !c.fixed {
		length, lerr := c.factory.EntityLength(entity)
		if lerr != nil {
			c.Close()
			return entity, false, lerr
		}
		c.position += length
	}
	return entity, true, nil
}

// Close releases the cursor's borrowed reader. Safe to call more than once.
func (c *Cursor[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.ds.readerPool.Put(c.reader)
}
