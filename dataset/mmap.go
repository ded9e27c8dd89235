package dataset

import (
	"fmt"
	"os"
	"syscall"
)

// mappedFile memory-maps a file read-only for the lifetime of a Dataset
// opened in ModeMemoryMapped, so every MemoryReader handed out by the
// reader pool reads the same zero-copy region instead of issuing syscalls.
type mappedFile struct {
	file *os.File
	data []byte
}

func openMappedFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if stat.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidFormat)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(stat.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap: %v", ErrIO, err)
	}

	return &mappedFile{file: f, data: data}, nil
}

func (m *mappedFile) close() error {
	err := syscall.Munmap(m.data)
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
