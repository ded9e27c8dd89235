package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"patterndataset/pool"
)

// Reader is a positioned byte-level cursor over a dataset's container.
// Integers are little-endian, matching the Pattern file format exactly.
// A Reader is not safe for concurrent use; callers borrow one from a
// ReaderPool for the duration of a single materialization.
type Reader interface {
	// Seek repositions the cursor to an absolute offset within the
	// container.
	Seek(offset int64) error
	ReadByte() (byte, error)
	ReadUint16() (uint16, error)
	ReadUint32() (uint32, error)
	ReadInt32() (int32, error)
	// ReadBytes reads exactly n bytes at the current position and advances
	// the cursor by n.
	ReadBytes(n int) ([]byte, error)
	// Close releases any resource the Reader holds open (a file handle in
	// file mode; a no-op in memory/mmap mode).
	Close() error
}

// FileReader is a Reader backed by its own *os.File handle, positioned with
// Seek and consumed with sequential Reads. A ReaderPool in file mode holds
// one FileReader per pooled slot so that concurrent borrowers never share
// an OS file offset.
type FileReader struct {
	file *os.File
}

// NewFileReader opens path for a new FileReader. Each call opens an
// independent file descriptor.
func NewFileReader(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &FileReader{file: f}, nil
}

func (r *FileReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to %d: %v", ErrIO, offset, err)
	}
	return nil
}

func (r *FileReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r.file, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return buf[0], nil
}

func (r *FileReader) ReadUint16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.file, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (r *FileReader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.file, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (r *FileReader) ReadInt32() (int32, error) {
	u, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return int32(u), nil
}

// ReadBytes reads through a pooled scratch buffer rather than allocating an
// n-byte buffer directly, then copies out exactly n bytes for the caller -
// this keeps the per-record scratch read off the allocator on the hot
// section-assembly path, at the cost of the one copy the caller's owned
// result always needed anyway.
func (r *FileReader) ReadBytes(n int) ([]byte, error) {
	scratch := pool.GetByteSlice()
	defer pool.PutByteSlice(scratch)
	if cap(*scratch) < n {
		*scratch = make([]byte, n)
	}
	*scratch = (*scratch)[:n]

	if _, err := io.ReadFull(r.file, *scratch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	out := make([]byte, n)
	copy(out, *scratch)
	return out, nil
}

func (r *FileReader) Close() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// MemoryReader is a Reader over an in-memory byte slice, used for in-memory
// mode and for memory-mapped mode (the mapped region is handed to it as an
// ordinary []byte - see openMappedFile in mmap.go). Seeking and reading
// never touch the filesystem, so MemoryReaders are cheap enough that a pool
// backing one may hand out effectively unbounded readers.
type MemoryReader struct {
	data   []byte
	cursor int64
}

// NewMemoryReader wraps data for random-access reads. The slice is not
// copied; the caller must not mutate it for the lifetime of the reader.
func NewMemoryReader(data []byte) *MemoryReader {
	return &MemoryReader{data: data}
}

func (r *MemoryReader) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(r.data)) {
		return fmt.Errorf("%w: seek to %d exceeds length %d", ErrIO, offset, len(r.data))
	}
	r.cursor = offset
	return nil
}

func (r *MemoryReader) require(n int) error {
	if r.cursor+int64(n) > int64(len(r.data)) {
		return fmt.Errorf("%w: read past end of data at %d+%d", ErrIO, r.cursor, n)
	}
	return nil
}

func (r *MemoryReader) ReadByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.data[r.cursor]
	r.cursor++
	return b, nil
}

func (r *MemoryReader) ReadUint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.cursor:])
	r.cursor += 2
	return v, nil
}

func (r *MemoryReader) ReadUint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.cursor:])
	r.cursor += 4
	return v, nil
}

func (r *MemoryReader) ReadInt32() (int32, error) {
	u, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return int32(u), nil
}

func (r *MemoryReader) ReadBytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.cursor:r.cursor+int64(n)])
	r.cursor += int64(n)
	return out, nil
}

// Close is a no-op: a MemoryReader owns no external resource.
func (r *MemoryReader) Close() error { return nil }
