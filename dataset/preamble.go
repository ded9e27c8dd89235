package dataset

import (
	"fmt"
	"time"
)

// version identifies which of the two supported Pattern format revisions a
// container declares.
type version int

const (
	versionUnknown version = iota
	version31
	version32
)

// preambleCounts mirrors the section record counts already carried in each
// section's own Header, as a redundant trailing block the format repeats
// in the preamble. The Assembler cross-checks every resident section's
// Header.Count against its corresponding field here and fails with
// ErrInvalidFormat on a mismatch, catching truncated or corrupted files
// before any record is materialized.
type preambleCounts struct {
	components     uint32
	maps           uint32
	properties     uint32
	values         uint32
	profiles       uint32
	signatures     uint32
	nodes          uint32
	rootNodes      uint32
	profileOffsets uint32
}

// preamble is the container's fixed prefix: version tag, a 16-byte format
// tag, a length-prefixed copyright string, two 64-bit Unix-second
// timestamps, and the redundant count block.
type preamble struct {
	versionMajor  uint16
	versionMinor  uint16
	formatVersion uint32
	tag           [16]byte
	copyright     string
	published     time.Time
	nextUpdate    time.Time
	counts        preambleCounts
}

func (p preamble) version() version {
	switch {
	case p.versionMajor == 3 && p.versionMinor == 1:
		return version31
	case p.versionMajor == 3 && p.versionMinor == 2:
		return version32
	default:
		return versionUnknown
	}
}

// readUint64 reads a 64-bit little-endian value as two consecutive u32
// words (low word first), since Reader has no native 64-bit accessor and
// the timestamp fields are the only place the container needs one.
func readUint64(r Reader) (uint64, error) {
	lo, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	hi, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

// loadPreamble reads the container preamble from the reader's current
// position (offset 0 at open time) and leaves the reader positioned at the
// first section header.
func loadPreamble(r Reader) (preamble, error) {
	var p preamble

	major, err := r.ReadUint16()
	if err != nil {
		return p, err
	}
	minor, err := r.ReadUint16()
	if err != nil {
		return p, err
	}
	p.versionMajor, p.versionMinor = major, minor

	formatVersion, err := r.ReadUint32()
	if err != nil {
		return p, err
	}
	p.formatVersion = formatVersion

	tag, err := r.ReadBytes(16)
	if err != nil {
		return p, err
	}
	copy(p.tag[:], tag)

	copyrightLen, err := r.ReadUint16()
	if err != nil {
		return p, err
	}
	copyrightBytes, err := r.ReadBytes(int(copyrightLen))
	if err != nil {
		return p, err
	}
	p.copyright = string(copyrightBytes)

	published, err := readUint64(r)
	if err != nil {
		return p, err
	}
	nextUpdate, err := readUint64(r)
	if err != nil {
		return p, err
	}
	p.published = time.Unix(int64(published), 0).UTC()
	p.nextUpdate = time.Unix(int64(nextUpdate), 0).UTC()

	counts := make([]uint32, 9)
	for i := range counts {
		v, err := r.ReadUint32()
		if err != nil {
			return p, err
		}
		counts[i] = v
	}
	p.counts = preambleCounts{
		components: counts[0], maps: counts[1], properties: counts[2],
		values: counts[3], profiles: counts[4], signatures: counts[5],
		nodes: counts[6], rootNodes: counts[7], profileOffsets: counts[8],
	}

	if p.version() == versionUnknown {
		return p, fmt.Errorf("%w: version tag {%d,%d}", ErrUnknownVersion, major, minor)
	}
	return p, nil
}

// checkCount cross-validates a resident section's declared record count
// against the preamble's redundant count block.
func checkCount(name string, headerCount, preambleCount uint32) error {
	if headerCount != preambleCount {
		return fmt.Errorf("%w: %s section count %d does not match preamble count %d", ErrInvalidFormat, name, headerCount, preambleCount)
	}
	return nil
}
