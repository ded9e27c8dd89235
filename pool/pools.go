// Package pool provides reusable scratch buffers for file-backed byte
// reads, so the intermediate I/O buffer of each read is not allocated anew.
package pool

import (
	"sync"
)

// ByteSlicePool provides reusable byte slices used as the scratch buffer of
// one FileReader.ReadBytes call (an AsciiString payload, or the preamble's
// tag and copyright) before the bytes are copied into the caller's slice.
var ByteSlicePool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// GetByteSlice gets a zero-length byte slice from the pool.
func GetByteSlice() *[]byte {
	b := ByteSlicePool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// PutByteSlice returns a byte slice to the pool. Slices that grew unusually
// large are dropped rather than pooled, so one oversized record doesn't
// permanently inflate the pool's steady-state footprint.
func PutByteSlice(b *[]byte) {
	if cap(*b) > 1024*1024 {
		return
	}
	ByteSlicePool.Put(b)
}
