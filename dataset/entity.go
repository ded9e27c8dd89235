package dataset

// Entity is the common capability of every materialized record: an
// immutable index within its owning section. Entities carry no reader, no
// mutex and no lifecycle of their own - they are plain values a caller may
// copy, cache or discard freely; all cross-references are resolved lazily
// through the back-reference to the Dataset they were created from.
type Entity interface {
	// Index returns the record number (fixed sections) or byte offset
	// within the section (variable sections) this entity was materialized
	// from.
	Index() uint32
}
