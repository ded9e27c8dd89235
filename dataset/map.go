package dataset

// MapEntity is a named set of profiles associated with one data source
// (named "Map" in the file format; renamed here to avoid colliding with
// the builtin map type). It is a fixed, small, fully-resident section.
type MapEntity struct {
	ds        *Dataset
	index     uint32
	nameIndex uint32
}

func (m MapEntity) Index() uint32 { return m.index }

// Name resolves the map's name through the strings section.
func (m MapEntity) Name() (string, error) {
	s, err := m.ds.Strings().Get(m.nameIndex)
	if err != nil {
		return "", err
	}
	return s.Value(), nil
}

const mapRecordSize = 4 // u32 nameIndex

type mapFactory struct{}

func (mapFactory) Create(ds *Dataset, key uint32, r Reader) (MapEntity, error) {
	nameIndex, err := r.ReadUint32()
	if err != nil {
		return MapEntity{}, err
	}
	return MapEntity{ds: ds, index: key, nameIndex: nameIndex}, nil
}

func (mapFactory) RecordLength() (uint32, error) { return mapRecordSize, nil }

func (mapFactory) EntityLength(MapEntity) (uint32, error) { return mapRecordSize, nil }
