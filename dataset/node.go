package dataset

// nodeChild is one single-character transition out of a prefix-tree node:
// matching value at the node's character position advances to the
// node at offset childOffset within the nodes section.
type nodeChild struct {
	value       byte
	childOffset uint32
}

// NodeV31 is a v3.1 prefix-tree node over user-agent tokens. Its
// ranked-signature references are stored inline; NodeV32 instead indexes
// into the node_ranked_signature_indexes side table.
type NodeV31 struct {
	ds                *Dataset
	index             uint32 // byte offset within the nodes section
	characterPosition uint16
	children          []nodeChild
	rankedSignatures  []uint32
}

func (n NodeV31) Index() uint32 { return n.index }

func (n NodeV31) CharacterPosition() uint16 { return n.characterPosition }

func (n NodeV31) ChildCount() int { return len(n.children) }

// ChildOffsetFor returns the offset of the child node reached by matching
// value at this node's character position, and whether such a child
// exists.
func (n NodeV31) ChildOffsetFor(value byte) (uint32, bool) {
	for _, c := range n.children {
		if c.value == value {
			return c.childOffset, true
		}
	}
	return 0, false
}

func (n NodeV31) RankedSignatureCount() int { return len(n.rankedSignatures) }

// RankedSignatureAt resolves the record index (into the signatures
// section) of the i-th ranked signature this node references.
func (n NodeV31) RankedSignatureAt(i int) (uint32, error) {
	if i < 0 || i >= len(n.rankedSignatures) {
		return 0, ErrInvalidIndex
	}
	return n.rankedSignatures[i], nil
}

type nodeV31Factory struct{}

func (nodeV31Factory) Create(ds *Dataset, key uint32, r Reader) (NodeV31, error) {
	pos, err := r.ReadUint16()
	if err != nil {
		return NodeV31{}, err
	}
	childCount, err := r.ReadByte()
	if err != nil {
		return NodeV31{}, err
	}
	children := make([]nodeChild, childCount)
	for i := range children {
		value, err := r.ReadByte()
		if err != nil {
			return NodeV31{}, err
		}
		offset, err := r.ReadUint32()
		if err != nil {
			return NodeV31{}, err
		}
		children[i] = nodeChild{value: value, childOffset: offset}
	}
	rankedCount, err := r.ReadUint16()
	if err != nil {
		return NodeV31{}, err
	}
	ranked := make([]uint32, rankedCount)
	for i := range ranked {
		v, err := r.ReadUint32()
		if err != nil {
			return NodeV31{}, err
		}
		ranked[i] = v
	}
	return NodeV31{ds: ds, index: key, characterPosition: pos, children: children, rankedSignatures: ranked}, nil
}

func (nodeV31Factory) RecordLength() (uint32, error) { return 0, errVariableLength }

func (nodeV31Factory) EntityLength(n NodeV31) (uint32, error) {
	return uint32(2 + 1 + 5*len(n.children) + 2 + 4*len(n.rankedSignatures)), nil
}

// nodeSubString is a multi-character literal transition: matching the
// string at stringIndex starting at this node's character position
// advances to childOffset. v3.2 adds this as an optimisation over walking
// one character at a time.
type nodeSubString struct {
	stringIndex uint32
	childOffset uint32
}

// NodeV32 is a v3.2 prefix-tree node. It adds a sub-string transition
// table alongside single-character children, and resolves its
// ranked-signature references through the node_ranked_signature_indexes
// side table rather than storing them inline.
type NodeV32 struct {
	ds                *Dataset
	index             uint32
	characterPosition uint16
	children          []nodeChild
	subStrings        []nodeSubString
	rankedSigStart    uint32
	rankedSigCount    uint16
}

func (n NodeV32) Index() uint32 { return n.index }

func (n NodeV32) CharacterPosition() uint16 { return n.characterPosition }

func (n NodeV32) ChildCount() int { return len(n.children) }

func (n NodeV32) ChildOffsetFor(value byte) (uint32, bool) {
	for _, c := range n.children {
		if c.value == value {
			return c.childOffset, true
		}
	}
	return 0, false
}

func (n NodeV32) SubStringCount() int { return len(n.subStrings) }

// SubStringAt resolves the i-th sub-string transition's literal string and
// child offset.
func (n NodeV32) SubStringAt(i int) (string, uint32, error) {
	if i < 0 || i >= len(n.subStrings) {
		return "", 0, ErrInvalidIndex
	}
	sub := n.subStrings[i]
	s, err := n.ds.Strings().Get(sub.stringIndex)
	if err != nil {
		return "", 0, err
	}
	return s.Value(), sub.childOffset, nil
}

func (n NodeV32) RankedSignatureCount() int { return int(n.rankedSigCount) }

// RankedSignatureAt resolves the i-th ranked signature index through the
// node_ranked_signature_indexes side table.
func (n NodeV32) RankedSignatureAt(i int) (uint32, error) {
	if i < 0 || i >= int(n.rankedSigCount) {
		return 0, ErrInvalidIndex
	}
	return n.ds.NodeRankedSignatureIndexes().Get(n.rankedSigStart + uint32(i))
}

type nodeV32Factory struct{}

func (nodeV32Factory) Create(ds *Dataset, key uint32, r Reader) (NodeV32, error) {
	pos, err := r.ReadUint16()
	if err != nil {
		return NodeV32{}, err
	}
	childCount, err := r.ReadByte()
	if err != nil {
		return NodeV32{}, err
	}
	children := make([]nodeChild, childCount)
	for i := range children {
		value, err := r.ReadByte()
		if err != nil {
			return NodeV32{}, err
		}
		offset, err := r.ReadUint32()
		if err != nil {
			return NodeV32{}, err
		}
		children[i] = nodeChild{value: value, childOffset: offset}
	}
	subCount, err := r.ReadByte()
	if err != nil {
		return NodeV32{}, err
	}
	subs := make([]nodeSubString, subCount)
	for i := range subs {
		stringIndex, err := r.ReadUint32()
		if err != nil {
			return NodeV32{}, err
		}
		offset, err := r.ReadUint32()
		if err != nil {
			return NodeV32{}, err
		}
		subs[i] = nodeSubString{stringIndex: stringIndex, childOffset: offset}
	}
	rankedStart, err := r.ReadUint32()
	if err != nil {
		return NodeV32{}, err
	}
	rankedCount, err := r.ReadUint16()
	if err != nil {
		return NodeV32{}, err
	}
	return NodeV32{
		ds:                ds,
		index:             key,
		characterPosition: pos,
		children:          children,
		subStrings:        subs,
		rankedSigStart:    rankedStart,
		rankedSigCount:    rankedCount,
	}, nil
}

func (nodeV32Factory) RecordLength() (uint32, error) { return 0, errVariableLength }

func (nodeV32Factory) EntityLength(n NodeV32) (uint32, error) {
	return uint32(2 + 1 + 5*len(n.children) + 1 + 8*len(n.subStrings) + 4 + 2), nil
}
