package localconfig

import "errors"

// Sentinel errors for category/backend dispatch failures (spec.md §4.B, §7).
var (
	// ErrUnsupportedBackend is returned when configure/synchronize names a
	// backend not registered for the category.
	ErrUnsupportedBackend = errors.New("localconfig: unsupported backend")

	// ErrUninitializedBackend is returned when Synchronize is called for a
	// category whose active backend was never Configure'd.
	ErrUninitializedBackend = errors.New("localconfig: backend not configured")

	// ErrUnknownCategory is returned when a category name is not recognized
	// by the owning component.
	ErrUnknownCategory = errors.New("localconfig: unknown category")
)
