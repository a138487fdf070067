package finder

import (
	"fmt"

	"github.com/guibot-go/guibot/internal/imagelog"
)

// Registry maps find.backend names to finder constructors, the
// table-driven dispatch spec.md §9 calls for in place of an inheritance
// chain. It is reused by internal/matchfile (selecting a finder type from a
// match file's backend key), internal/globalconfig (defaults), and
// internal/calibrator.Benchmark (Cartesian enumeration over backend names).
type Registry struct {
	constructors map[string]func(*imagelog.Logger) Finder
}

// NewRegistry constructs a Registry with every non-composite backend
// registered under its find.backend name. HybridFinder is intentionally
// excluded: it requires an explicit default finder at construction time and
// so is built directly by callers (e.g. internal/cli's chain command) rather than
// through the registry.
func NewRegistry() *Registry {
	return &Registry{constructors: map[string]func(*imagelog.Logger) Finder{
		"autopy": func(log *imagelog.Logger) Finder { return NewAutoPyFinder(log) },
		"contour": func(log *imagelog.Logger) Finder { return NewContourFinder(log) },
		"template": func(log *imagelog.Logger) Finder { return NewTemplateFinder(log) },
		"feature": func(log *imagelog.Logger) Finder { return NewFeatureFinder(log) },
		"cascade": func(log *imagelog.Logger) Finder { return NewCascadeFinder(log) },
		"tempfeat": func(log *imagelog.Logger) Finder { return NewTemplateFeatureFinder(log) },
	}}
}

// Names returns every registered backend name, used by Benchmark's
// Cartesian enumeration and by config validation.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	return names
}

// New constructs the named backend's Finder sharing log. Unknown names fail
// with ErrUnsupportedBackend (spec.md §4.F: "unknown values fail with
// UnsupportedBackend").
func (r *Registry) New(name string, log *imagelog.Logger) (Finder, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedBackend)
	}
	return ctor(log), nil
}

// Register adds or overrides a constructor, used to register finders that
// need extra wiring beyond a bare *imagelog.Logger (text, deep) under an
// application-chosen name.
func (r *Registry) Register(name string, ctor func(*imagelog.Logger) Finder) {
	r.constructors[name] = ctor
}
