//go:build !unix

package finder

// NewOutputSilencer returns a silencer that always fails with
// ErrNotImplemented on non-POSIX platforms: there is no fd-dup equivalent
// wired here (spec.md §9 flags this as platform-specific and out of
// scope beyond POSIX).
func NewOutputSilencer() OutputSilencer { return noopSilencer{} }

type noopSilencer struct{}

func (noopSilencer) Silence(fn func() error) error {
	return ErrNotImplemented
}
