package cvparam

import "errors"

// Sentinel errors for CVParameter construction and parsing failures. These
// are wrapped with context via fmt.Errorf("...: %w", ...) at each call site,
// matching the teacher's error style (see internal/pipeline/errors.go).
var (
	// ErrOutOfBounds is returned when a numeric value falls outside [min, max].
	ErrOutOfBounds = errors.New("cvparam: value out of bounds")

	// ErrEnumerationNotFinite is returned when an enumerated parameter is
	// constructed with an infinite (nil) bound.
	ErrEnumerationNotFinite = errors.New("cvparam: enumerated parameter requires finite bounds")

	// ErrMalformedText is returned by FromString when the input does not
	// match the "<value='…' min='…' ...>" grammar.
	ErrMalformedText = errors.New("cvparam: malformed parameter text")

	// ErrTypeMismatch is returned when min/max/delta/tolerance cannot be
	// reconciled with the value's Kind.
	ErrTypeMismatch = errors.New("cvparam: type mismatch between fields")
)
