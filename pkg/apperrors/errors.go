package apperrors

import "errors"

var (
	// ErrUnknownSource is returned when a request names a source that is not
	// in the catalog. Rejected before any I/O is attempted.
	ErrUnknownSource = errors.New("unknown source")

	// ErrUnsupportedIntent is returned when a source has no SQL template for
	// the recognized intent. Rejected before any I/O is attempted.
	ErrUnsupportedIntent = errors.New("unsupported intent for source")

	// ErrSourceUnreachable marks a per-source connectivity or execution
	// failure. It degrades that source's contribution, not the request.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrNotReadOnly is returned by the executor safety policy when a
	// statement is not a single read-only SELECT.
	ErrNotReadOnly = errors.New("statement is not read-only")
)
