package dataset

import "strings"

// AsciiString is a length-prefixed ASCII payload stored in the strings
// section. Its index is the absolute byte offset of the record within the
// section, not a sequential record number, since the section carries no
// fixed-width records.
type AsciiString struct {
	index uint32
	raw   []byte // exactly as stored, trailing NUL (if any) included
}

func (s AsciiString) Index() uint32 { return s.index }

// Value returns the string with any single trailing NUL byte trimmed, the
// representation callers normally want.
func (s AsciiString) Value() string {
	return strings.TrimSuffix(string(s.raw), "\x00")
}

// Len returns the length of the stored payload, NUL included - the same
// value the on-disk length prefix carries.
func (s AsciiString) Len() int { return len(s.raw) }

// asciiStringFactory materializes AsciiString records: a u16 length prefix
// followed by that many bytes, with no alignment padding.
type asciiStringFactory struct{}

func (asciiStringFactory) Create(ds *Dataset, key uint32, r Reader) (AsciiString, error) {
	length, err := r.ReadUint16()
	if err != nil {
		return AsciiString{}, err
	}
	raw, err := r.ReadBytes(int(length))
	if err != nil {
		return AsciiString{}, err
	}
	return AsciiString{index: key, raw: raw}, nil
}

func (asciiStringFactory) RecordLength() (uint32, error) {
	return 0, errVariableLength
}

func (asciiStringFactory) EntityLength(s AsciiString) (uint32, error) {
	return uint32(2 + len(s.raw)), nil
}
