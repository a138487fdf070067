// Package report renders calibration/benchmark results as bounded,
// LLM-context-sized Markdown, grounded on the teacher's internal/tokenizer
// package: the same Tokenizer interface and BPE/estimator implementations,
// applied to calibration rounds and benchmark rows instead of harvested
// source files.
package report

import "fmt"

// Tokenizer counts tokens in text content. All implementations must be
// safe for concurrent use from multiple goroutines.
type Tokenizer interface {
	// Count returns the number of tokens in the given text. Returns 0 for
	// empty text. Never returns a negative value.
	Count(text string) int
	// Name returns the tokenizer encoding name (e.g. "cl100k_base").
	Name() string
}

// Supported tokenizer encoding names.
const (
	NameCL100K = "cl100k_base"
	NameO200K  = "o200k_base"
	NameNone   = "none"
)

// ErrUnknownTokenizer is returned by NewTokenizer for an unrecognised name.
var ErrUnknownTokenizer = fmt.Errorf("unknown tokenizer")

// NewTokenizer returns a Tokenizer for the given encoding name. An empty
// name returns the default cl100k_base tokenizer.
func NewTokenizer(name string) (Tokenizer, error) {
	if name == "" {
		name = NameCL100K
	}
	switch name {
	case NameCL100K, NameO200K:
		return newTiktokenTokenizer(name)
	case NameNone:
		return newEstimatorTokenizer(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: cl100k_base, o200k_base, none)", ErrUnknownTokenizer, name)
	}
}
