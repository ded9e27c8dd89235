package dataset

import (
	"bytes"
	"encoding/binary"
)

// stringTable accumulates AsciiString records for a fixture's strings
// section, tracking each entry's byte offset the same way the real section
// addresses its variable-length records.
type stringTable struct {
	buf    bytes.Buffer
	offset uint32
	count  uint32
}

func (t *stringTable) add(s string) uint32 {
	idx := t.offset
	binary.Write(&t.buf, binary.LittleEndian, uint16(len(s)))
	t.buf.WriteString(s)
	t.offset += uint32(2 + len(s))
	t.count++
	return idx
}

// fixtureWriter assembles a complete Pattern container byte-for-byte as the
// Assembler expects to read one: a preamble followed by each section's
// Header immediately followed by its body.
type fixtureWriter struct {
	buf bytes.Buffer
}

func (w *fixtureWriter) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *fixtureWriter) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *fixtureWriter) u64(v uint64) {
	w.u32(uint32(v))
	w.u32(uint32(v >> 32))
}
func (w *fixtureWriter) bytes(b []byte) { w.buf.Write(b) }

func (w *fixtureWriter) preamble(major, minor uint16, counts [9]uint32) {
	w.u16(major)
	w.u16(minor)
	w.u32(1) // formatVersion
	w.bytes(make([]byte, 16))
	copyright := "(c) Test Fixtures"
	w.u16(uint16(len(copyright)))
	w.buf.WriteString(copyright)
	w.u64(1700000000) // published
	w.u64(1700100000) // nextUpdate
	for _, c := range counts {
		w.u32(c)
	}
}

// section writes a Header for body at the container's current position plus
// headerSize, then the body itself.
func (w *fixtureWriter) section(body []byte, count uint32) {
	start := uint32(w.buf.Len()) + headerSize
	w.u32(start)
	w.u32(count)
	w.u32(uint32(len(body)))
	w.bytes(body)
}

// fixture bundles the raw container bytes with the logical indexes a test
// needs to exercise cross-references.
type fixture struct {
	data []byte

	hardwareName  uint32
	browserName   uint32
	isMobileName  uint32
	trueName      uint32
	falseName     uint32
	descName      uint32

	hardwareComponent uint32
	browserComponent  uint32

	hardwareMap uint32

	isMobileProperty uint32

	trueValue  uint32
	falseValue uint32
}

// buildFixture constructs a minimal, internally consistent v3.1 or v3.2
// container exercising every section the Assembler wires: two components,
// one map, one property (with a default value and a description), two
// values, two profiles, two signatures, three nodes, two root nodes and two
// profile offsets.
func buildFixture(isV32 bool) fixture {
	var f fixture

	strs := &stringTable{}
	f.hardwareName = strs.add("Hardware")
	f.browserName = strs.add("Browser")
	f.isMobileName = strs.add("IsMobile")
	f.trueName = strs.add("True")
	f.falseName = strs.add("False")
	f.descName = strs.add("Whether the device is a mobile handset")

	f.hardwareComponent = 0
	f.browserComponent = 1
	f.hardwareMap = 0
	f.isMobileProperty = 0
	f.trueValue = 0
	f.falseValue = 1

	minor := uint16(1)
	if isV32 {
		minor = 2
	}

	var components bytes.Buffer
	if isV32 {
		writeComponentV32(&components, f.hardwareName, 1, nil)
		writeComponentV32(&components, f.browserName, 2, []uint32{f.hardwareName})
	} else {
		writeComponentV31(&components, f.hardwareName, 1)
		writeComponentV31(&components, f.browserName, 2)
	}
	componentCount := uint32(2)

	var maps bytes.Buffer
	writeMap(&maps, f.hardwareName)
	mapCount := uint32(1)

	var properties bytes.Buffer
	writeProperty(&properties, f.isMobileName, byte(ValueTypeBool), f.trueValue, f.descName, f.hardwareComponent)
	propertyCount := uint32(1)

	var values bytes.Buffer
	writeValue(&values, f.isMobileProperty, f.trueName)
	writeValue(&values, f.isMobileProperty, f.falseName)
	valueCount := uint32(2)

	var profiles bytes.Buffer
	profile0Sigs := []uint32{}
	if isV32 {
		profile0Sigs = []uint32{0}
	}
	writeProfile(&profiles, 1001, f.hardwareMap, []uint32{f.trueValue}, profile0Sigs, isV32)
	writeProfile(&profiles, 1002, f.hardwareMap, []uint32{f.falseValue}, nil, isV32)
	profileCount := uint32(2)

	var nodes bytes.Buffer
	var node0Offset, node1Offset, node2Offset uint32
	if isV32 {
		node0Offset = uint32(nodes.Len())
		writeNodeV32(&nodes, 0, []nodeChild{{value: 'a', childOffset: 0}}, nil, 0, 1)
		node1Offset = uint32(nodes.Len())
		writeNodeV32(&nodes, 1, nil, []nodeSubString{{stringIndex: f.browserName, childOffset: 0}}, 1, 1)
		node2Offset = uint32(nodes.Len())
		writeNodeV32(&nodes, 2, nil, nil, 0, 0)
	} else {
		node0Offset = uint32(nodes.Len())
		writeNodeV31(&nodes, 0, []nodeChild{{value: 'a', childOffset: 0}}, []uint32{0})
		node1Offset = uint32(nodes.Len())
		writeNodeV31(&nodes, 1, nil, []uint32{1})
		node2Offset = uint32(nodes.Len())
		writeNodeV31(&nodes, 2, nil, nil)
	}
	nodeCount := uint32(3)
	_ = node2Offset

	var signatures bytes.Buffer
	var sigNodeOffsets, nodeRankedSigIdx, rankedSigIdx []uint32
	if isV32 {
		sigNodeOffsets = []uint32{node0Offset, node1Offset}
		rankedSigIdx = []uint32{0, 1}
		nodeRankedSigIdx = []uint32{0, 1}
		writeSignatureV32(&signatures, 0, 2, 0)
		writeSignatureV32(&signatures, 2, 0, 1)
	} else {
		writeSignatureV31(&signatures, 0, []uint32{0})
		writeSignatureV31(&signatures, 1, nil)
	}
	signatureCount := uint32(2)

	var rootNodes bytes.Buffer
	writeRootNode(&rootNodes, f.hardwareComponent, node0Offset)
	writeRootNode(&rootNodes, f.browserComponent, node1Offset)
	rootNodeCount := uint32(2)

	var profileOffsets bytes.Buffer
	writeProfileOffset(&profileOffsets, 1001, 0)
	writeProfileOffset(&profileOffsets, 1002, profileRecordLen(1, len(profile0Sigs), isV32))
	profileOffsetCount := uint32(2)

	counts := [9]uint32{
		componentCount, mapCount, propertyCount, valueCount, profileCount,
		signatureCount, nodeCount, rootNodeCount, profileOffsetCount,
	}

	w := &fixtureWriter{}
	w.preamble(3, minor, counts)
	w.section(strs.buf.Bytes(), strs.count)
	w.section(components.Bytes(), componentCount)
	w.section(maps.Bytes(), mapCount)
	w.section(properties.Bytes(), propertyCount)
	w.section(values.Bytes(), valueCount)
	w.section(profiles.Bytes(), profileCount)
	w.section(signatures.Bytes(), signatureCount)
	if isV32 {
		w.section(packU32(sigNodeOffsets), uint32(len(sigNodeOffsets)))
		w.section(packU32(nodeRankedSigIdx), uint32(len(nodeRankedSigIdx)))
		w.section(packU32(rankedSigIdx), uint32(len(rankedSigIdx)))
	}
	w.section(nodes.Bytes(), nodeCount)
	w.section(rootNodes.Bytes(), rootNodeCount)
	w.section(profileOffsets.Bytes(), profileOffsetCount)

	f.data = w.buf.Bytes()
	return f
}

func packU32(vs []uint32) []byte {
	var buf bytes.Buffer
	for _, v := range vs {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func writeComponentV31(buf *bytes.Buffer, nameIndex uint32, id byte) {
	binary.Write(buf, binary.LittleEndian, nameIndex)
	buf.WriteByte(id)
}

func writeComponentV32(buf *bytes.Buffer, nameIndex uint32, id byte, headerNames []uint32) {
	binary.Write(buf, binary.LittleEndian, nameIndex)
	buf.WriteByte(id)
	buf.WriteByte(byte(len(headerNames)))
	idx := make([]uint32, componentMaxHeaders)
	copy(idx, headerNames)
	for _, v := range idx {
		binary.Write(buf, binary.LittleEndian, v)
	}
}

func writeMap(buf *bytes.Buffer, nameIndex uint32) {
	binary.Write(buf, binary.LittleEndian, nameIndex)
}

func writeProperty(buf *bytes.Buffer, nameIndex uint32, valueType byte, defaultValueIndex, descIndex, componentIndex uint32) {
	binary.Write(buf, binary.LittleEndian, nameIndex)
	buf.WriteByte(valueType)
	binary.Write(buf, binary.LittleEndian, defaultValueIndex)
	binary.Write(buf, binary.LittleEndian, descIndex)
	binary.Write(buf, binary.LittleEndian, componentIndex)
}

func writeValue(buf *bytes.Buffer, propertyIndex, nameIndex uint32) {
	binary.Write(buf, binary.LittleEndian, propertyIndex)
	binary.Write(buf, binary.LittleEndian, nameIndex)
}

func writeProfile(buf *bytes.Buffer, profileID, mapIndex uint32, values, signatures []uint32, isV32 bool) {
	binary.Write(buf, binary.LittleEndian, profileID)
	binary.Write(buf, binary.LittleEndian, mapIndex)
	binary.Write(buf, binary.LittleEndian, uint16(len(values)))
	for _, v := range values {
		binary.Write(buf, binary.LittleEndian, v)
	}
	if isV32 {
		binary.Write(buf, binary.LittleEndian, uint16(len(signatures)))
		for _, s := range signatures {
			binary.Write(buf, binary.LittleEndian, s)
		}
	}
}

// profileRecordLen returns the serialized length of a profile record with
// valueCount values and sigCount signatures, for computing ProfileOffset.Offset
// in the fixture without re-deriving EntityLength by hand at each call
// site.
func profileRecordLen(valueCount, sigCount int, isV32 bool) uint32 {
	size := uint32(4 + 4 + 2 + 4*valueCount)
	if isV32 {
		size += uint32(2 + 4*sigCount)
	}
	return size
}

func writeSignatureV31(buf *bytes.Buffer, rankedIndex uint32, nodeOffsets []uint32) {
	binary.Write(buf, binary.LittleEndian, rankedIndex)
	buf.WriteByte(byte(len(nodeOffsets)))
	offsets := make([]uint32, maxSignatureNodes)
	copy(offsets, nodeOffsets)
	for _, o := range offsets {
		binary.Write(buf, binary.LittleEndian, o)
	}
}

func writeSignatureV32(buf *bytes.Buffer, nodeOffsetStart uint32, nodeOffsetCount byte, rankedTableIndex uint32) {
	binary.Write(buf, binary.LittleEndian, nodeOffsetStart)
	buf.WriteByte(nodeOffsetCount)
	binary.Write(buf, binary.LittleEndian, rankedTableIndex)
}

func writeNodeV31(buf *bytes.Buffer, pos uint16, children []nodeChild, ranked []uint32) {
	binary.Write(buf, binary.LittleEndian, pos)
	buf.WriteByte(byte(len(children)))
	for _, c := range children {
		buf.WriteByte(c.value)
		binary.Write(buf, binary.LittleEndian, c.childOffset)
	}
	binary.Write(buf, binary.LittleEndian, uint16(len(ranked)))
	for _, r := range ranked {
		binary.Write(buf, binary.LittleEndian, r)
	}
}

func writeNodeV32(buf *bytes.Buffer, pos uint16, children []nodeChild, subs []nodeSubString, rankedStart uint32, rankedCount uint16) {
	binary.Write(buf, binary.LittleEndian, pos)
	buf.WriteByte(byte(len(children)))
	for _, c := range children {
		buf.WriteByte(c.value)
		binary.Write(buf, binary.LittleEndian, c.childOffset)
	}
	buf.WriteByte(byte(len(subs)))
	for _, s := range subs {
		binary.Write(buf, binary.LittleEndian, s.stringIndex)
		binary.Write(buf, binary.LittleEndian, s.childOffset)
	}
	binary.Write(buf, binary.LittleEndian, rankedStart)
	binary.Write(buf, binary.LittleEndian, rankedCount)
}

func writeRootNode(buf *bytes.Buffer, componentIndex, nodeOffset uint32) {
	binary.Write(buf, binary.LittleEndian, componentIndex)
	binary.Write(buf, binary.LittleEndian, nodeOffset)
}

func writeProfileOffset(buf *bytes.Buffer, profileID, offset uint32) {
	binary.Write(buf, binary.LittleEndian, profileID)
	binary.Write(buf, binary.LittleEndian, offset)
}
