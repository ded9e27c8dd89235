package dataset

import (
	"fmt"
	"sync"
	"time"

	"patterndataset/logger"
)

// readerFactory constructs one fresh Reader positioned at the start of the
// container. The pool calls it once per pre-created slot and again whenever
// it grows toward its max.
type readerFactory func() (Reader, error)

// ReaderPool hands out positioned Readers over a single underlying
// container to concurrent callers. In file mode each pooled Reader owns an
// independent *os.File, so borrowers never contend on a shared OS offset;
// in memory/in-memory-mapped mode the pool still serializes borrowing
// through the same channel, but readers are cheap enough that exhaustion is
// effectively never observed in practice.
type ReaderPool struct {
	newReader readerFactory
	minSize   int
	maxSize   int

	available chan Reader
	all       []Reader
	mu        sync.Mutex

	created  int64
	borrowed int64
	returned int64
	closed   chan struct{}
	closeOnce sync.Once
}

// NewReaderPool pre-creates minSize readers via newReader and allows growth
// up to maxSize on demand.
func NewReaderPool(newReader readerFactory, minSize, maxSize int) (*ReaderPool, error) {
	if minSize <= 0 {
		minSize = 1
	}
	if maxSize < minSize {
		maxSize = minSize
	}

	p := &ReaderPool{
		newReader: newReader,
		minSize:   minSize,
		maxSize:   maxSize,
		available: make(chan Reader, maxSize),
		all:       make([]Reader, 0, maxSize),
		closed:    make(chan struct{}),
	}

	for i := 0; i < minSize; i++ {
		r, err := newReader()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("reader %d: %w", i, err)
		}
		p.all = append(p.all, r)
		p.available <- r
		p.created++
	}

	logger.Info("dataset: created reader pool min=%d max=%d", minSize, maxSize)
	go p.reportMetrics()

	return p, nil
}

// Get borrows a Reader, growing the pool if below maxSize, or blocking up
// to 5 seconds for one to free up otherwise.
func (p *ReaderPool) Get() (Reader, error) {
	p.borrowed++

	select {
	case r := <-p.available:
		return r, nil
	default:
	}

	p.mu.Lock()
	if len(p.all) < p.maxSize {
		r, err := p.newReader()
		if err != nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("%w: growing reader pool: %v", ErrIO, err)
		}
		p.all = append(p.all, r)
		p.created++
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	select {
	case r := <-p.available:
		return r, nil
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("%w: reader pool exhausted: all %d readers in use", ErrIO, p.maxSize)
	}
}

// Put returns a borrowed Reader to the pool.
func (p *ReaderPool) Put(r Reader) {
	if r == nil {
		return
	}
	p.returned++

	select {
	case p.available <- r:
	default:
		logger.Warn("dataset: reader pool full, dropping excess reader")
	}
}

// WithReader borrows a Reader for the duration of fn and always returns it
// afterward, even if fn panics via the pool's own bookkeeping invariants
// being upheld by a plain defer.
func (p *ReaderPool) WithReader(fn func(Reader) error) error {
	r, err := p.Get()
	if err != nil {
		return err
	}
	defer p.Put(r)
	return fn(r)
}

// Close closes every Reader the pool ever created. Idempotent.
func (p *ReaderPool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)

		p.mu.Lock()
		defer p.mu.Unlock()
		for _, r := range p.all {
			if cerr := r.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		logger.Info("dataset: closed reader pool created=%d borrowed=%d returned=%d",
			p.created, p.borrowed, p.returned)
	})
	return err
}

// reportMetrics periodically logs pool occupancy at debug level; it is
// diagnostic only and never gates correctness.
func (p *ReaderPool) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.TraceIf("pool", "reader pool: %d available of %d created, borrowed=%d returned=%d",
				len(p.available), p.created, p.borrowed, p.returned)
		case <-p.closed:
			return
		}
	}
}
