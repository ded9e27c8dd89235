package dataset

// Value is a concrete, string-valued option for a Property (e.g. the
// property "IsMobile" has values "True" and "False").
type Value struct {
	ds            *Dataset
	index         uint32
	propertyIndex uint32
	nameIndex     uint32
}

func (v Value) Index() uint32 { return v.index }

// Property resolves the property this value belongs to.
func (v Value) Property() (Property, error) {
	return v.ds.Properties().Get(v.propertyIndex)
}

// Name resolves the value's string representation.
func (v Value) Name() (string, error) {
	s, err := v.ds.Strings().Get(v.nameIndex)
	if err != nil {
		return "", err
	}
	return s.Value(), nil
}

const valueRecordSize = 8 // u32 propertyIndex + u32 nameIndex

type valueFactory struct{}

func (valueFactory) Create(ds *Dataset, key uint32, r Reader) (Value, error) {
	propertyIndex, err := r.ReadUint32()
	if err != nil {
		return Value{}, err
	}
	nameIndex, err := r.ReadUint32()
	if err != nil {
		return Value{}, err
	}
	return Value{ds: ds, index: key, propertyIndex: propertyIndex, nameIndex: nameIndex}, nil
}

func (valueFactory) RecordLength() (uint32, error) { return valueRecordSize, nil }

func (valueFactory) EntityLength(Value) (uint32, error) { return valueRecordSize, nil }
