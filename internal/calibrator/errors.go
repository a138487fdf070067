package calibrator

import "errors"

// ErrInvalidCase is returned when a Case's Haystack target carries no raster
// image for a finder.Find call to search within (spec.md §4.G).
var ErrInvalidCase = errors.New("calibrator: case haystack has no raster image")
