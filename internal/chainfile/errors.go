package chainfile

import "errors"

// ErrCyclicChain is returned when a ".steps" step's resolved absolute path
// is already being loaded somewhere on the current recursion path.
var ErrCyclicChain = errors.New("chainfile: cyclic chain reference")

// ErrIncompatibleTargetFile is returned when a step's data path extension
// names no known target kind (spec.md §6).
var ErrIncompatibleTargetFile = errors.New("chainfile: unrecognized target file extension")

// ErrMissingStepData is returned by Save when a step carries no source
// path to derive a data file name from.
var ErrMissingStepData = errors.New("chainfile: step has no source file")

// ErrMissingStepSettings is returned by Save when a step has no own Finder
// to serialize a match file from.
var ErrMissingStepSettings = errors.New("chainfile: step has no own match settings")
