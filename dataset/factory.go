package dataset

// Factory materializes one entity kind from a positioned Reader. The set of
// factories is closed and known at Dataset open time (AsciiString,
// ComponentV31/V32, Map, Property, Value, Profile, SignatureV31/V32,
// NodeV31/V32, RootNode, ProfileOffset) - there is no open-world
// polymorphism here, just a version-tagged dispatch the Assembler performs
// once while wiring sections.
//
// A Factory must leave the reader advanced by exactly the record's
// serialized size on a successful Create.
type Factory[T Entity] interface {
	// Create materializes one record of kind T starting at the reader's
	// current position. key is the record's section-local index (record
	// number for fixed sections, byte offset for variable sections).
	Create(ds *Dataset, key uint32, r Reader) (T, error)

	// RecordLength returns the constant serialized size of every record
	// this factory produces. It returns errVariableLength for a
	// variable-length kind; the Assembler calls it only while wiring a
	// fixed section at open time, to learn the record size.
	RecordLength() (uint32, error)

	// EntityLength returns the serialized size of an already-materialized
	// entity. For a fixed-length kind this is the same constant
	// RecordLength reports; for a variable-length kind it must be derived
	// from the entity itself, since the next record's position cannot be
	// computed without first producing the current one.
	EntityLength(e T) (uint32, error)
}
