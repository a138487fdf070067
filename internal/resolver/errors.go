package resolver

import "errors"

// ErrFileNotFound is returned by Search when silent is false and no
// registered path yields an existing file for name under any of the
// retried extensions (spec.md §6).
var ErrFileNotFound = errors.New("resolver: file not found")

// ErrInvalidRestriction is returned when restriction is not a valid
// doublestar glob pattern.
var ErrInvalidRestriction = errors.New("resolver: invalid restriction pattern")
