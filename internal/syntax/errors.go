package syntax

import "errors"

// ErrUnavailable is the family of missing-capability errors. Callers that
// match it should fall back to plain text.
var ErrUnavailable = errors.New("syntax unavailable")

var (
	// ErrNoLanguage indicates a mode without a grammar.
	ErrNoLanguage = &unavailableError{"no language"}

	// ErrNotParsed indicates a request before the first parse.
	ErrNotParsed = &unavailableError{"not parsed"}

	// ErrNoQuery indicates a language without a usable highlight query.
	ErrNoQuery = &unavailableError{"no query"}
)

// ErrInvalidEdit indicates an edit whose offsets are inconsistent with the
// text it is applied to.
var ErrInvalidEdit = errors.New("invalid edit")

type unavailableError struct {
	msg string
}

func (e *unavailableError) Error() string {
	return "syntax unavailable: " + e.msg
}

func (e *unavailableError) Unwrap() error {
	return ErrUnavailable
}

// ErrOutOfRange indicates a position outside the parsed text.
var ErrOutOfRange = errors.New("position out of range")
