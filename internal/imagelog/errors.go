package imagelog

import "errors"

// ErrMissingHotmap is returned by Log when a finder calls it without having
// recorded at least one hotmap (spec.md §7: "omitting the final Log call, or
// calling it with zero hotmaps, is a finder bug").
var ErrMissingHotmap = errors.New("imagelog: log called with no hotmaps recorded")
