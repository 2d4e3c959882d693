package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrOffsetOutOfRange indicates a location outside the document.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates a negative length or a range past the end.
	ErrRangeInvalid = errors.New("invalid range")

	// ErrRowOutOfRange indicates a row outside [0, LineCount()).
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrClosed indicates use of a closed engine.
	ErrClosed = errors.New("engine is closed")
)
