package report

// estimatorTokenizer is the "none" Tokenizer: len(text) / 4, the widely
// used approximate-4-chars-per-token heuristic. Holds no mutable state, so
// it is trivially goroutine-safe.
type estimatorTokenizer struct{}

func newEstimatorTokenizer() *estimatorTokenizer {
	return &estimatorTokenizer{}
}

func (e *estimatorTokenizer) Count(text string) int {
	return len(text) / 4
}

func (e *estimatorTokenizer) Name() string {
	return NameNone
}
