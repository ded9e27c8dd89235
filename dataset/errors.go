package dataset

import "errors"

// Sentinel errors returned by public Dataset operations. Callers should use
// errors.Is against these values; wrapped context (offsets, section names,
// keys) is attached with fmt.Errorf("...: %w", ...) at the call site.
var (
	// ErrIO reports a failure in the underlying reader (file I/O, a short
	// mmap region, or a closed in-memory source).
	ErrIO = errors.New("dataset: i/o error")

	// ErrInvalidFormat reports that the preamble or a section header failed
	// a structural check: bad magic, an impossible offset, a truncated
	// record, or a count that doesn't reconcile with a section's declared
	// byte length.
	ErrInvalidFormat = errors.New("dataset: invalid format")

	// ErrUnknownVersion reports a preamble version tag outside {3.1, 3.2}.
	ErrUnknownVersion = errors.New("dataset: unknown format version")

	// ErrInvalidIndex reports an out-of-range key passed to a list's Get.
	ErrInvalidIndex = errors.New("dataset: index out of range")

	// ErrConfig reports a caller-supplied cache override that does not
	// satisfy the expected cache interface for its slot.
	ErrConfig = errors.New("dataset: invalid cache configuration")

	// ErrClosed reports an operation attempted on a closed Dataset.
	ErrClosed = errors.New("dataset: dataset is closed")
)

// errVariableLength signals that a Factory's RecordLength was called on a
// variable-length kind. The Assembler states each section's fixed or
// variable kind explicitly and calls RecordLength only for fixed sections,
// so this error never surfaces to a caller of a public operation.
var errVariableLength = errors.New("dataset: factory has no fixed record length")
