package dataset

// Profile is a device's property-value selections, recorded as a flat list
// of Value indexes; which component a given value belongs to is resolved
// lazily (Value -> Property -> Component) rather than grouped on disk. A
// v3.2 profile additionally carries a list of signature indexes that
// reference this profile, present only in datasets built from that
// version.
//
// Profile records are variable-length: a fixed metadata prefix followed by
// a value-index array sized by a count embedded in the record itself, plus
// (v3.2 only) a trailing signature-index array sized by its own count.
type Profile struct {
	ds         *Dataset
	index      uint32 // byte offset within the profiles section
	profileID  uint32
	mapIndex   uint32
	valueIdx   []uint32
	signatureIdx []uint32 // nil unless the dataset is v3.2
}

func (p Profile) Index() uint32 { return p.index }

func (p Profile) ProfileID() uint32 { return p.profileID }

// Map resolves the data-source map this profile was built for.
func (p Profile) Map() (MapEntity, error) {
	return p.ds.Maps().Get(p.mapIndex)
}

// ValueCount returns how many value indexes this profile carries.
func (p Profile) ValueCount() int { return len(p.valueIdx) }

// ValueAt resolves the i-th value referenced by this profile.
func (p Profile) ValueAt(i int) (Value, error) {
	if i < 0 || i >= len(p.valueIdx) {
		return Value{}, ErrInvalidIndex
	}
	return p.ds.Values().Get(p.valueIdx[i])
}

// SignatureCount returns how many signatures reference this profile. It is
// always 0 for a v3.1 dataset, which does not carry this back-reference.
func (p Profile) SignatureCount() int { return len(p.signatureIdx) }

// SignatureIndexAt resolves the record index of the i-th signature
// referencing this profile.
func (p Profile) SignatureIndexAt(i int) (uint32, error) {
	if i < 0 || i >= len(p.signatureIdx) {
		return 0, ErrInvalidIndex
	}
	return p.signatureIdx[i], nil
}

type profileFactory struct {
	isV32 bool
}

func (f profileFactory) Create(ds *Dataset, key uint32, r Reader) (Profile, error) {
	profileID, err := r.ReadUint32()
	if err != nil {
		return Profile{}, err
	}
	mapIndex, err := r.ReadUint32()
	if err != nil {
		return Profile{}, err
	}
	valueCount, err := r.ReadUint16()
	if err != nil {
		return Profile{}, err
	}
	values := make([]uint32, valueCount)
	for i := range values {
		v, err := r.ReadUint32()
		if err != nil {
			return Profile{}, err
		}
		values[i] = v
	}

	var signatures []uint32
	if f.isV32 {
		sigCount, err := r.ReadUint16()
		if err != nil {
			return Profile{}, err
		}
		signatures = make([]uint32, sigCount)
		for i := range signatures {
			v, err := r.ReadUint32()
			if err != nil {
				return Profile{}, err
			}
			signatures[i] = v
		}
	}

	return Profile{
		ds:           ds,
		index:        key,
		profileID:    profileID,
		mapIndex:     mapIndex,
		valueIdx:     values,
		signatureIdx: signatures,
	}, nil
}

func (profileFactory) RecordLength() (uint32, error) { return 0, errVariableLength }

func (f profileFactory) EntityLength(p Profile) (uint32, error) {
	size := uint32(4 + 4 + 2 + 4*len(p.valueIdx))
	if f.isV32 {
		size += 2 + 4*uint32(len(p.signatureIdx))
	}
	return size, nil
}
