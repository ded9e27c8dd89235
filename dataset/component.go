package dataset

import (
	"fmt"
	"sync/atomic"
)

// componentHeadersByName maps a well-known component name to the HTTP
// request headers a detection algorithm should inspect for it. A v3.1
// dataset doesn't store this list on disk - only the component's name -
// so ComponentV31 derives it from this table the first time it is asked.
// Unrecognised component names fall back to the single "User-Agent"
// header, which every component in practice depends on.
var componentHeadersByName = map[string][]string{
	"Hardware":      {"User-Agent"},
	"HardwarePlatform": {"User-Agent"},
	"SoftwarePlatform": {"User-Agent"},
	"BrowserName":   {"User-Agent"},
	"Browser":       {"User-Agent"},
	"Crawler":       {"User-Agent"},
	"JavaScript":    {"User-Agent", "Accept"},
}

func componentHeadersForName(name string) []string {
	if headers, ok := componentHeadersByName[name]; ok {
		out := make([]string, len(headers))
		copy(out, headers)
		return out
	}
	return []string{"User-Agent"}
}

// componentV31Size is the on-disk width of every v3.1 component record
// (name string-index, component id) across both versions. v3.2 adds a
// fixed-width header-index slate in its own, wider record.
const (
	componentV31Size      = 5  // u32 nameIndex + u8 componentId
	componentMaxHeaders    = 8
	componentV32Size      = 4 + 1 + 1 + componentMaxHeaders*4 // nameIndex + id + headerCount + indexes
)

// ComponentV31 is a v3.1 component record. Its HTTP-header list isn't
// stored on disk; it is derived from the component's name and memoized on
// first access behind a single-publication atomic cell, per the immutable
// small-array contract in the design notes: neither path takes a lock;
// the read path is an atomic load and the write path publishes with a
// single compare-and-swap, so at most one list is ever stored.
type ComponentV31 struct {
	ds          *Dataset
	index       uint32
	nameIndex   uint32
	componentID byte
	headers     *atomic.Pointer[[]string]
}

func (c ComponentV31) Index() uint32 { return c.index }

// Name resolves the component's name through the owning Dataset's strings
// section.
func (c ComponentV31) Name() (string, error) {
	s, err := c.ds.Strings().Get(c.nameIndex)
	if err != nil {
		return "", err
	}
	return s.Value(), nil
}

// ComponentID returns the component's numeric identifier.
func (c ComponentV31) ComponentID() byte { return c.componentID }

// Headers returns the HTTP headers relevant to this component, computing
// and memoizing the list from the component's name on first call.
func (c ComponentV31) Headers() ([]string, error) {
	if cached := c.headers.Load(); cached != nil {
		return *cached, nil
	}
	name, err := c.Name()
	if err != nil {
		return nil, err
	}
	headers := componentHeadersForName(name)
	c.headers.CompareAndSwap(nil, &headers)
	return *c.headers.Load(), nil
}

type componentV31Factory struct{}

func (componentV31Factory) Create(ds *Dataset, key uint32, r Reader) (ComponentV31, error) {
	nameIndex, err := r.ReadUint32()
	if err != nil {
		return ComponentV31{}, err
	}
	id, err := r.ReadByte()
	if err != nil {
		return ComponentV31{}, err
	}
	return ComponentV31{ds: ds, index: key, nameIndex: nameIndex, componentID: id, headers: new(atomic.Pointer[[]string])}, nil
}

func (componentV31Factory) RecordLength() (uint32, error) { return componentV31Size, nil }

func (componentV31Factory) EntityLength(ComponentV31) (uint32, error) { return componentV31Size, nil }

// ComponentV32 is a v3.2 component record. Unlike v3.1 it stores its HTTP
// header list explicitly, as a fixed slate of string indexes with a count
// of how many are populated.
type ComponentV32 struct {
	ds          *Dataset
	index       uint32
	nameIndex   uint32
	componentID byte
	headerCount byte
	headerIdx   [componentMaxHeaders]uint32
}

func (c ComponentV32) Index() uint32 { return c.index }

func (c ComponentV32) Name() (string, error) {
	s, err := c.ds.Strings().Get(c.nameIndex)
	if err != nil {
		return "", err
	}
	return s.Value(), nil
}

func (c ComponentV32) ComponentID() byte { return c.componentID }

// Headers resolves this component's explicit header-index list through
// the strings section.
func (c ComponentV32) Headers() ([]string, error) {
	headers := make([]string, 0, c.headerCount)
	for i := byte(0); i < c.headerCount; i++ {
		s, err := c.ds.Strings().Get(c.headerIdx[i])
		if err != nil {
			return nil, fmt.Errorf("component %d header %d: %w", c.index, i, err)
		}
		headers = append(headers, s.Value())
	}
	return headers, nil
}

type componentV32Factory struct{}

func (componentV32Factory) Create(ds *Dataset, key uint32, r Reader) (ComponentV32, error) {
	nameIndex, err := r.ReadUint32()
	if err != nil {
		return ComponentV32{}, err
	}
	id, err := r.ReadByte()
	if err != nil {
		return ComponentV32{}, err
	}
	count, err := r.ReadByte()
	if err != nil {
		return ComponentV32{}, err
	}
	var idx [componentMaxHeaders]uint32
	for i := 0; i < componentMaxHeaders; i++ {
		v, err := r.ReadUint32()
		if err != nil {
			return ComponentV32{}, err
		}
		idx[i] = v
	}
	return ComponentV32{ds: ds, index: key, nameIndex: nameIndex, componentID: id, headerCount: count, headerIdx: idx}, nil
}

func (componentV32Factory) RecordLength() (uint32, error) { return componentV32Size, nil }

func (componentV32Factory) EntityLength(ComponentV32) (uint32, error) { return componentV32Size, nil }
