package dataset

import "fmt"

// MemoryFixedList is a fully-resident, fixed-length section: every record
// is materialized once at open time and Get is thereafter O(1) and never
// touches a Reader. Used for the small, hot sections (components, maps,
// properties, root nodes, profile offsets).
type MemoryFixedList[T Entity] struct {
	header  Header
	entries []T
}

// Read positions r at header.Start and invokes factory.Create exactly
// header.Count times, filling the list. r is not released; the caller
// borrows it from the pool and returns it.
func (l *MemoryFixedList[T]) Read(ds *Dataset, header Header, factory Factory[T], r Reader) error {
	if err := r.Seek(int64(header.Start)); err != nil {
		return err
	}
	entries := make([]T, header.Count)
	for i := uint32(0); i < header.Count; i++ {
		e, err := factory.Create(ds, i, r)
		if err != nil {
			return fmt.Errorf("resident record %d: %w", i, err)
		}
		entries[i] = e
	}
	l.header = header
	l.entries = entries
	return nil
}

// Size returns the number of resident entries.
func (l *MemoryFixedList[T]) Size() int { return len(l.entries) }

// Get returns the entity at record index i.
func (l *MemoryFixedList[T]) Get(i uint32) (T, error) {
	if i >= uint32(len(l.entries)) {
		var zero T
		return zero, ErrInvalidIndex
	}
	return l.entries[i], nil
}

// All returns the resident entries directly. Callers must not mutate the
// returned slice; it is the list's own backing array.
func (l *MemoryFixedList[T]) All() []T { return l.entries }
