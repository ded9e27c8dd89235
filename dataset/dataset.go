// Package dataset implements the read-only Pattern dataset engine: it maps
// a binary device-detection data file (format versions 3.1 and 3.2) into a
// collection of typed, cross-referenced, lazily-materialized entities for
// an external HTTP-header / user-agent matching algorithm to walk.
//
// A Dataset is opened once with Open or OpenBytes and is immutable for the
// remainder of its lifetime; every exported accessor is safe for
// concurrent use. Close releases the dataset's reader pool and, if
// requested, deletes the backing file.
package dataset

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"patterndataset/cache"
	"patterndataset/config"
	"patterndataset/logger"
)

// Mode selects how a Dataset reads its backing container.
type Mode int

const (
	// ModeFile reads through ordinary positioned file I/O. The reader
	// pool's size is bounded to the number of OS file handles requested.
	ModeFile Mode = iota
	// ModeMemoryMapped reads through a read-only mmap of the file;
	// readers are cheap cursors over the mapped region.
	ModeMemoryMapped
	// ModeInMemory reads from an in-memory byte slice supplied to
	// OpenBytes; readers are cheap cursors, same as mmap mode.
	ModeInMemory
)

// Slot identifies a section eligible for a caller-supplied cache override.
// Component, Signature and Node sections are not included: their concrete
// entity type depends on the file's format version, which isn't known
// until after the preamble is read, so a pre-built cache can't be typed
// against them before Open runs. Signatures and Nodes use an internal
// version-appropriate default cache instead (see CacheKind); Components
// are fully resident and not cached.
type Slot int

const (
	SlotStrings Slot = iota
	SlotValues
	SlotProfiles
)

// CacheKind selects the eviction strategy for the version-dispatched
// streaming sections (Signatures, Nodes) that always run behind this
// package's own cache rather than a caller-supplied one (see Slot).
// Components are excluded: they are small enough to load fully resident
// and are never cached at all.
type CacheKind int

const (
	// CacheKindLRU evicts the least-recently-used entry (default).
	CacheKindLRU CacheKind = iota
	// CacheKindARC adapts between recency and frequency eviction,
	// trading bookkeeping overhead for a typically higher hit ratio
	// under scan-heavy access patterns (grounded on cache.ARCCache).
	CacheKindARC
)

// Options configures how a Dataset is opened.
type Options struct {
	// DeleteOnClose removes the backing file when Close runs, for
	// datasets opened against a caller-owned temporary copy.
	DeleteOnClose bool
	// LastModified records when the backing file was last updated, for
	// callers that track dataset freshness; if zero it is inferred from
	// the file's mtime (file/mmap mode) or left zero (in-memory mode).
	LastModified time.Time
	Mode         Mode
	// CacheOverrides supplies a cache.Cache implementation for specific
	// sections (see Slot). A nil map applies this package's built-in
	// default caches, sized from config.Load(), to every recognized
	// slot. A non-nil map is taken literally: a slot absent from it gets
	// a direct loader with no cache at all, per the engine's caching
	// contract - construct it from DefaultCacheOverrides() and delete
	// keys to opt specific sections out.
	CacheOverrides map[Slot]any
	// CacheKind selects the eviction strategy backing Signatures and
	// Nodes. Zero value is CacheKindLRU.
	CacheKind CacheKind
	// ReaderPoolMin / ReaderPoolMax override config.Load()'s reader pool
	// sizing when non-zero.
	ReaderPoolMin int
	ReaderPoolMax int
}

// DefaultCacheOverrides builds the package's recommended default cache for
// every overridable slot, sized from config.Load(). Callers can start from
// this map and delete entries to opt specific sections out of caching
// entirely.
func DefaultCacheOverrides() map[Slot]any {
	cfg := config.Load()
	return map[Slot]any{
		SlotStrings:  cache.NewLRUCache[AsciiString](cfg.CacheCapacityStrings),
		SlotValues:   cache.NewLRUCache[Value](cfg.CacheCapacityValues),
		SlotProfiles: cache.NewLRUCache[Profile](cfg.CacheCapacityProfiles),
	}
}

// Dataset is a read-only handle onto an open Pattern data file. Every
// exported method is safe for concurrent use; the underlying sections are
// immutable for the Dataset's lifetime.
type Dataset struct {
	mode          Mode
	path          string
	deleteOnClose bool
	lastModified  time.Time
	mapped        *mappedFile
	readerPool    *ReaderPool
	containerSize int64
	pre           preamble
	ver           version
	closed        atomic.Bool

	strings        *StreamList[AsciiString]
	components     EntityList
	maps           *MemoryFixedList[MapEntity]
	properties     *PropertyList
	values         *StreamList[Value]
	profiles       *StreamList[Profile]
	signatures     EntityList
	nodes          EntityList
	rootNodes      *MemoryFixedList[RootNode]
	profileOffsets *MemoryFixedList[ProfileOffset]

	signatureNodeOffsets       *IntTable // v3.2 only
	nodeRankedSignatureIndexes *IntTable // v3.2 only
	rankedSignatureIndexes     *IntTable // v3.2 only; v3.1 ranks are inline
}

func withDefaults(opts Options) Options {
	cfg := config.Load()
	if opts.ReaderPoolMin <= 0 {
		opts.ReaderPoolMin = cfg.ReaderPoolMin
	}
	if opts.ReaderPoolMax <= 0 {
		opts.ReaderPoolMax = cfg.ReaderPoolMax
	}
	if opts.CacheOverrides == nil {
		opts.CacheOverrides = DefaultCacheOverrides()
	}
	return opts
}

// Open opens the Pattern data file at path.
func Open(path string, opts Options) (*Dataset, error) {
	opts = withDefaults(opts)

	ds := &Dataset{mode: opts.Mode, path: path, deleteOnClose: opts.DeleteOnClose, lastModified: opts.LastModified}

	var newReader readerFactory
	switch opts.Mode {
	case ModeMemoryMapped:
		mapped, err := openMappedFile(path)
		if err != nil {
			return nil, err
		}
		ds.mapped = mapped
		ds.containerSize = int64(len(mapped.data))
		if ds.lastModified.IsZero() {
			stat, err := mapped.file.Stat()
			if err != nil {
				mapped.close()
				return nil, fmt.Errorf("%w: %v", ErrIO, err)
			}
			ds.lastModified = stat.ModTime()
		}
		newReader = func() (Reader, error) { return NewMemoryReader(mapped.data), nil }
	case ModeInMemory:
		return nil, fmt.Errorf("%w: ModeInMemory requires OpenBytes", ErrConfig)
	default:
		stat, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		ds.containerSize = stat.Size()
		if ds.lastModified.IsZero() {
			ds.lastModified = stat.ModTime()
		}
		newReader = func() (Reader, error) { return NewFileReader(path) }
	}

	pool, err := NewReaderPool(newReader, opts.ReaderPoolMin, opts.ReaderPoolMax)
	if err != nil {
		if ds.mapped != nil {
			ds.mapped.close()
		}
		return nil, err
	}
	ds.readerPool = pool

	if err := assemble(ds, opts); err != nil {
		pool.Close()
		if ds.mapped != nil {
			ds.mapped.close()
		}
		return nil, err
	}

	logger.Info("dataset: opened %s version=%d size=%d", path, ds.ver, ds.containerSize)
	return ds, nil
}

// OpenBytes opens a Pattern data file already resident in memory. opts.Mode
// is ignored; the dataset always reads directly from data.
func OpenBytes(data []byte, opts Options) (*Dataset, error) {
	opts = withDefaults(opts)
	opts.Mode = ModeInMemory

	ds := &Dataset{mode: ModeInMemory, containerSize: int64(len(data)), lastModified: opts.LastModified}

	newReader := func() (Reader, error) { return NewMemoryReader(data), nil }
	pool, err := NewReaderPool(newReader, opts.ReaderPoolMin, opts.ReaderPoolMax)
	if err != nil {
		return nil, err
	}
	ds.readerPool = pool

	if err := assemble(ds, opts); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("dataset: opened in-memory dataset version=%d size=%d", ds.ver, ds.containerSize)
	return ds, nil
}

// Close releases the Dataset's reader pool and, if requested at Open time,
// deletes the backing file. Idempotent and safe to call concurrently with
// outstanding Get calls; those either complete or fail with ErrIO.
func (ds *Dataset) Close() error {
	if !ds.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if ds.readerPool != nil {
		err = ds.readerPool.Close()
	}
	if ds.mapped != nil {
		if merr := ds.mapped.close(); err == nil {
			err = merr
		}
	}
	if ds.deleteOnClose && ds.path != "" {
		if rerr := os.Remove(ds.path); rerr != nil && err == nil {
			err = fmt.Errorf("%w: removing %s: %v", ErrIO, ds.path, rerr)
		}
	}
	logger.Info("dataset: closed")
	return err
}

func (ds *Dataset) checkOpen() error {
	if ds.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Version reports which format revision this Dataset was parsed as, as a
// human-readable string ("3.1" or "3.2").
func (ds *Dataset) Version() string {
	if ds.ver == version31 {
		return "3.1"
	}
	return "3.2"
}

// LastModified reports the backing file's modification time, explicit or
// inferred at open time.
func (ds *Dataset) LastModified() time.Time { return ds.lastModified }

func (ds *Dataset) Strings() *StreamList[AsciiString] { return ds.strings }

func (ds *Dataset) Components() EntityList { return ds.components }

func (ds *Dataset) componentAt(i uint32) (Entity, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}
	return ds.components.GetEntity(i)
}

func (ds *Dataset) Maps() *MemoryFixedList[MapEntity] { return ds.maps }

func (ds *Dataset) Properties() *PropertyList { return ds.properties }

func (ds *Dataset) Values() *StreamList[Value] { return ds.values }

func (ds *Dataset) Profiles() *StreamList[Profile] { return ds.profiles }

func (ds *Dataset) Signatures() EntityList { return ds.signatures }

func (ds *Dataset) Nodes() EntityList { return ds.nodes }

func (ds *Dataset) RootNodes() *MemoryFixedList[RootNode] { return ds.rootNodes }

func (ds *Dataset) ProfileOffsets() *MemoryFixedList[ProfileOffset] { return ds.profileOffsets }

// RankedSignatureIndexes returns the v3.2 ranked-signature-index side
// table. It is nil for a v3.1 dataset, whose signatures carry their rank
// inline - callers should use Signature.RankedSignatureIndex() instead of
// reaching for this table directly.
func (ds *Dataset) RankedSignatureIndexes() *IntTable { return ds.rankedSignatureIndexes }

// SignatureNodeOffsets returns the v3.2 signature-node-offsets side table.
// Nil for a v3.1 dataset.
func (ds *Dataset) SignatureNodeOffsets() *IntTable { return ds.signatureNodeOffsets }

// NodeRankedSignatureIndexes returns the v3.2 node-ranked-signature-indexes
// side table. Nil for a v3.1 dataset.
func (ds *Dataset) NodeRankedSignatureIndexes() *IntTable { return ds.nodeRankedSignatureIndexes }
