package finder

import (
	"errors"

	"github.com/guibot-go/guibot/internal/imagelog"
)

var (
	// ErrIncompatibleTarget is returned by a finder's capability check when
	// the needle's Kind is not one the finder can match (spec.md §4.E).
	ErrIncompatibleTarget = errors.New("finder: incompatible target kind")
	// ErrIncompatibleTargetFile is returned when a target references a file
	// whose extension or contents do not match what the finder expects
	// (e.g. a Pattern pointing at a network file handed to CascadeFinder).
	ErrIncompatibleTargetFile = errors.New("finder: incompatible target file")
	// ErrUnsupportedBackend is returned when a configured sub-algorithm name
	// (template method, detector name, ...) is not among the allowed set.
	ErrUnsupportedBackend = errors.New("finder: unsupported backend")
	// ErrUninitializedBackend is returned when a finder is used before its
	// backend-specific settings have been configured.
	ErrUninitializedBackend = errors.New("finder: uninitialized backend")
	// ErrMissingHotmap re-exports imagelog's sentinel under the finder
	// package for callers that only import finder.
	ErrMissingHotmap = imagelog.ErrMissingHotmap
	// ErrFind wraps unexpected lower-level failures encountered while
	// matching (I/O, decode, inference-runtime errors).
	ErrFind = errors.New("finder: find failed")
	// ErrNotFind reports that a find ran but found no acceptable match. The
	// finders in this package do not return it; they return an empty match
	// list instead.
	ErrNotFind = errors.New("finder: no acceptable match")
	// ErrNotImplemented is returned by documented stub operations
	// (TextFinder's Components and ERStat detectors and BeamSearch
	// recognizer, DeepFinder's Train/Test hooks, the non-unix
	// OutputSilencer).
	ErrNotImplemented = errors.New("finder: not implemented")
)
