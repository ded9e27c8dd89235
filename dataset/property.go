package dataset

// ValueType identifies the Go-ish type a Property's values should be
// interpreted as by the matching algorithm.
type ValueType byte

const (
	ValueTypeString ValueType = iota
	ValueTypeInt
	ValueTypeBool
	ValueTypeDouble
	ValueTypeJavaScript
)

// Property is a metadata record describing one named, typed attribute of a
// Component: its name, declared type, default value and description, all
// resolved lazily through string indexes.
type Property struct {
	ds                *Dataset
	index             uint32
	nameIndex         uint32
	valueType         ValueType
	defaultValueIndex uint32
	descriptionIndex  uint32
	componentIndex    uint32
}

func (p Property) Index() uint32 { return p.index }

func (p Property) Name() (string, error) {
	s, err := p.ds.Strings().Get(p.nameIndex)
	if err != nil {
		return "", err
	}
	return s.Value(), nil
}

func (p Property) ValueType() ValueType { return p.valueType }

// DefaultValue resolves the property's default value record.
func (p Property) DefaultValue() (Value, error) {
	return p.ds.Values().Get(p.defaultValueIndex)
}

// Description resolves the property's description string. The Dataset
// built this section always has a non-empty description for every
// well-formed Premium/Lite fixture (see S2); callers must still treat
// ErrInvalidIndex from a malformed file as possible.
func (p Property) Description() (string, error) {
	s, err := p.ds.Strings().Get(p.descriptionIndex)
	if err != nil {
		return "", err
	}
	return s.Value(), nil
}

// Component resolves the component this property belongs to. Returns
// whichever component variant (v3.1/v3.2) the Dataset was opened with.
func (p Property) Component() (Entity, error) {
	return p.ds.componentAt(p.componentIndex)
}

const propertyRecordSize = 4 + 1 + 4 + 4 + 4

type propertyFactory struct{}

func (propertyFactory) Create(ds *Dataset, key uint32, r Reader) (Property, error) {
	nameIndex, err := r.ReadUint32()
	if err != nil {
		return Property{}, err
	}
	vt, err := r.ReadByte()
	if err != nil {
		return Property{}, err
	}
	defIndex, err := r.ReadUint32()
	if err != nil {
		return Property{}, err
	}
	descIndex, err := r.ReadUint32()
	if err != nil {
		return Property{}, err
	}
	compIndex, err := r.ReadUint32()
	if err != nil {
		return Property{}, err
	}
	return Property{
		ds:                ds,
		index:             key,
		nameIndex:         nameIndex,
		valueType:         ValueType(vt),
		defaultValueIndex: defIndex,
		descriptionIndex:  descIndex,
		componentIndex:    compIndex,
	}, nil
}

func (propertyFactory) RecordLength() (uint32, error) { return propertyRecordSize, nil }

func (propertyFactory) EntityLength(Property) (uint32, error) { return propertyRecordSize, nil }
