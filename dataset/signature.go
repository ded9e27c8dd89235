package dataset

import "fmt"

// maxSignatureNodes bounds the inline node-offset slate a v3.1 signature
// record carries, keeping the record fixed-length. v3.2 drops this bound
// by moving node offsets into the signature_node_offsets side table.
const maxSignatureNodes = 16

// Signature is the version-independent view of a signature record that
// both SignatureV31 and SignatureV32 satisfy, so callers can read node
// offsets and the ranked-signature index without branching on version.
type Signature interface {
	Entity
	NodeOffsetCount() int
	NodeOffsetAt(i int) (uint32, error)
	RankedSignatureIndex() (uint32, error)
}

// SignatureV31 is a v3.1 signature: a device fingerprint storing its node
// offsets inline and its ranked-signature index directly on the record.
type SignatureV31 struct {
	ds                   *Dataset
	index                uint32
	rankedSignatureIndex uint32
	nodeOffsetCount      byte
	nodeOffsets          [maxSignatureNodes]uint32
}

func (s SignatureV31) Index() uint32 { return s.index }

// NodeOffsetCount returns how many node offsets this signature carries.
func (s SignatureV31) NodeOffsetCount() int { return int(s.nodeOffsetCount) }

// NodeOffsetAt resolves the byte offset (into the nodes section) of the
// i-th node this signature references.
func (s SignatureV31) NodeOffsetAt(i int) (uint32, error) {
	if i < 0 || i >= int(s.nodeOffsetCount) {
		return 0, ErrInvalidIndex
	}
	return s.nodeOffsets[i], nil
}

// RankedSignatureIndex returns this signature's rank, stored inline for
// v3.1. See SignatureV32.RankedSignatureIndex for the v3.2 equivalent that
// instead consults a packed side table - RankedSignatureIndex on the
// common Signature interface unifies both.
func (s SignatureV31) RankedSignatureIndex() (uint32, error) {
	return s.rankedSignatureIndex, nil
}

const signatureV31RecordSize = 4 + 1 + maxSignatureNodes*4

type signatureV31Factory struct{}

func (signatureV31Factory) Create(ds *Dataset, key uint32, r Reader) (SignatureV31, error) {
	ranked, err := r.ReadUint32()
	if err != nil {
		return SignatureV31{}, err
	}
	count, err := r.ReadByte()
	if err != nil {
		return SignatureV31{}, err
	}
	var offsets [maxSignatureNodes]uint32
	for i := 0; i < maxSignatureNodes; i++ {
		v, err := r.ReadUint32()
		if err != nil {
			return SignatureV31{}, err
		}
		offsets[i] = v
	}
	if int(count) > maxSignatureNodes {
		return SignatureV31{}, fmt.Errorf("%w: signature %d declares %d node offsets, max %d", ErrInvalidFormat, key, count, maxSignatureNodes)
	}
	return SignatureV31{ds: ds, index: key, rankedSignatureIndex: ranked, nodeOffsetCount: count, nodeOffsets: offsets}, nil
}

func (signatureV31Factory) RecordLength() (uint32, error) { return signatureV31RecordSize, nil }

func (signatureV31Factory) EntityLength(SignatureV31) (uint32, error) { return signatureV31RecordSize, nil }

// SignatureV32 is a v3.2 signature: node offsets and ranked-signature index
// both live in packed integer side tables, reached through a start index
// and count on the record itself.
type SignatureV32 struct {
	ds               *Dataset
	index            uint32
	nodeOffsetStart  uint32
	nodeOffsetCount  byte
	rankedTableIndex uint32
}

func (s SignatureV32) Index() uint32 { return s.index }

func (s SignatureV32) NodeOffsetCount() int { return int(s.nodeOffsetCount) }

// NodeOffsetAt resolves the i-th node offset through the dataset's
// signature_node_offsets side table.
func (s SignatureV32) NodeOffsetAt(i int) (uint32, error) {
	if i < 0 || i >= int(s.nodeOffsetCount) {
		return 0, ErrInvalidIndex
	}
	return s.ds.SignatureNodeOffsets().Get(s.nodeOffsetStart + uint32(i))
}

// RankedSignatureIndex resolves this signature's rank through the
// ranked_signature_indexes side table.
func (s SignatureV32) RankedSignatureIndex() (uint32, error) {
	return s.ds.RankedSignatureIndexes().Get(s.rankedTableIndex)
}

const signatureV32RecordSize = 4 + 1 + 4

type signatureV32Factory struct{}

func (signatureV32Factory) Create(ds *Dataset, key uint32, r Reader) (SignatureV32, error) {
	start, err := r.ReadUint32()
	if err != nil {
		return SignatureV32{}, err
	}
	count, err := r.ReadByte()
	if err != nil {
		return SignatureV32{}, err
	}
	rankedIdx, err := r.ReadUint32()
	if err != nil {
		return SignatureV32{}, err
	}
	return SignatureV32{ds: ds, index: key, nodeOffsetStart: start, nodeOffsetCount: count, rankedTableIndex: rankedIdx}, nil
}

func (signatureV32Factory) RecordLength() (uint32, error) { return signatureV32RecordSize, nil }

func (signatureV32Factory) EntityLength(SignatureV32) (uint32, error) { return signatureV32RecordSize, nil }
