package dataset

import "fmt"

// headerSize is the fixed on-disk width of a section Header record.
const headerSize = 12

// Header is a section's fixed-size descriptor: where its body starts,
// how many records it holds, and how many bytes the body spans. For
// fixed-length sections RecordSize derives the per-record width; for
// variable-length sections the body must be walked record by record.
type Header struct {
	Start      uint32
	Count      uint32
	ByteLength uint32
}

// Load reads 12 bytes from the reader's current position: start, count,
// byte length, in that field order, matching the container's on-disk
// layout exactly. After Load the reader is positioned just past the
// header, ready to read (or skip) the section body.
func (h *Header) Load(r Reader) error {
	start, err := r.ReadUint32()
	if err != nil {
		return err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return err
	}
	h.Start, h.Count, h.ByteLength = start, count, length
	return nil
}

// RecordSize returns the per-record width of a fixed-length section, or
// an ErrInvalidFormat-wrapped error if Count and ByteLength don't reconcile
// to a whole record size (invariant: record_size * count == byte_length).
// A section with Count == 0 has no records and returns a size of 0.
func (h Header) RecordSize() (uint32, error) {
	if h.Count == 0 {
		return 0, nil
	}
	if h.ByteLength%h.Count != 0 {
		return 0, fmt.Errorf("%w: section byte_length %d not a multiple of count %d", ErrInvalidFormat, h.ByteLength, h.Count)
	}
	return h.ByteLength / h.Count, nil
}

// Validate checks Header invariant 1 (start/length bounds) against the
// known container size.
func (h Header) Validate(containerSize int64) error {
	end := int64(h.Start) + int64(h.ByteLength)
	if int64(h.Start) < 0 || end < int64(h.Start) || end > containerSize {
		return fmt.Errorf("%w: section [%d, %d) exceeds container size %d", ErrInvalidFormat, h.Start, end, containerSize)
	}
	return nil
}
