// Package localconfig implements LocalConfig: the nested category->parameter
// schema every finder owns, with a configure/synchronize lifecycle and
// inherited ("reset") parent categories. See spec.md §3, §4.B and §9 (the
// re-architecture note: dispatch is a table, never an inherited method
// chain).
package localconfig

import (
	"fmt"

	"github.com/guibot-go/guibot/internal/cvparam"
)

// Entry is either a *cvparam.CVParameter or a BackendMarker string naming
// the active algorithm for a category.
type Entry interface {
	isEntry()
}

// BackendMarker is the value stored under the well-known "backend" key of
// every category.
type BackendMarker string

func (BackendMarker) isEntry() {}

// paramEntry adapts *cvparam.CVParameter to Entry.
type paramEntry struct{ *cvparam.CVParameter }

func (paramEntry) isEntry() {}

// WrapParam adapts a CVParameter for storage in a Category.
func WrapParam(p *cvparam.CVParameter) Entry { return paramEntry{p} }

// AsParam unwraps an Entry back to *cvparam.CVParameter, or returns
// (nil, false) if the entry is a BackendMarker.
func AsParam(e Entry) (*cvparam.CVParameter, bool) {
	if pe, ok := e.(paramEntry); ok {
		return pe.CVParameter, true
	}
	return nil, false
}

// BackendSchema generates a category's full parameter set for one backend.
// It is a pure function (spec.md §9: "never perform binding inside
// construction") — Configure calls it to populate Entries; Synchronize later
// binds those entries to external state via BindFunc.
type BackendSchema func() map[string]*cvparam.CVParameter

// BindFunc binds an already-configured category's parameters to whatever
// external object implements the backend (e.g. a wazero module instance for
// DeepFinder, or simply a no-op for backends with no external state).
type BindFunc func(entries map[string]Entry) error

// Category is one named group of parameters corresponding to one pluggable
// sub-algorithm (spec.md glossary). The root category is always named
// "type" with the single backend "cv" (spec.md §4.B).
type Category struct {
	Name   string
	Parent *Category // non-nil for inherited ("reset") categories

	schemas map[string]BackendSchema
	binders map[string]BindFunc

	active      string
	entries     map[string]Entry
	configured  bool
	synchronized bool
}

// NewCategory constructs a Category with the given registered backends.
// schemas maps backend name -> parameter generator; binders (optional, may
// be nil per-backend) maps backend name -> synchronize function.
func NewCategory(name string, schemas map[string]BackendSchema, binders map[string]BindFunc) *Category {
	return &Category{
		Name:    name,
		schemas: schemas,
		binders: binders,
		entries: make(map[string]Entry),
	}
}

// Backends returns the registered backend names for this category, useful
// for Calibrator.Benchmark's Cartesian enumeration (spec.md §4.G).
func (c *Category) Backends() []string {
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	return names
}

// ActiveBackend returns the name of the currently configured backend, or ""
// if Configure has never been called.
func (c *Category) ActiveBackend() string {
	return c.active
}

// ConfigureBackend rewrites the category schema for the named backend. When
// reset is true, the parent category's ConfigureBackend is applied first
// (spec.md §4.B: "reset=true means: apply the parent configure/synchronize
// first before the specific category").
func (c *Category) ConfigureBackend(name string, reset bool) error {
	if reset && c.Parent != nil {
		if err := c.Parent.ConfigureBackend(c.Parent.active, true); err != nil {
			return err
		}
	}
	gen, ok := c.schemas[name]
	if !ok {
		return fmt.Errorf("%s.%s: %w", c.Name, name, ErrUnsupportedBackend)
	}
	params := gen()
	entries := make(map[string]Entry, len(params)+1)
	entries["backend"] = BackendMarker(name)
	for k, p := range params {
		entries[k] = WrapParam(p)
	}
	c.entries = entries
	c.active = name
	c.configured = true
	c.synchronized = false
	return nil
}

// Configure regenerates the full schema from the currently active backend's
// defaults (the no-args form described in spec.md §4.B). If no backend is
// active yet, it is a no-op returning nil.
func (c *Category) Configure() error {
	if c.active == "" {
		return nil
	}
	return c.ConfigureBackend(c.active, false)
}

// SynchronizeBackend binds the category's configured parameters to an
// external object via bind. reset applies the parent's synchronize first.
// Synchronizing a category whose active backend was never configured fails
// with ErrUninitializedBackend (spec.md §4.B).
func (c *Category) SynchronizeBackend(name string, reset bool) error {
	if reset && c.Parent != nil {
		if err := c.Parent.SynchronizeBackend(c.Parent.active, true); err != nil {
			return err
		}
	}
	if !c.configured || c.active != name {
		return fmt.Errorf("%s.%s: %w", c.Name, name, ErrUninitializedBackend)
	}
	bind, ok := c.binders[name]
	if !ok || bind == nil {
		c.synchronized = true
		return nil
	}
	if err := bind(c.entries); err != nil {
		return err
	}
	c.synchronized = true
	return nil
}

// Synchronize rebinds all dependent library objects for the currently
// active backend (the no-args form described in spec.md §4.B).
func (c *Category) Synchronize() error {
	if c.active == "" {
		return fmt.Errorf("%s: %w", c.Name, ErrUninitializedBackend)
	}
	return c.SynchronizeBackend(c.active, false)
}

// Param looks up a CVParameter by key, returning (nil, false) if absent or
// if the key names a BackendMarker rather than a parameter.
func (c *Category) Param(key string) (*cvparam.CVParameter, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return AsParam(e)
}

// SetParam overwrites a CVParameter in place (used by the calibrator).
func (c *Category) SetParam(key string, p *cvparam.CVParameter) {
	c.entries[key] = WrapParam(p)
}

// Entries returns the live entry map (category->key->Entry), exposed for
// iteration by the calibrator and the match-file codec. Callers must not
// mutate the map's keys; parameter mutation via SetParam/Param is safe.
func (c *Category) Entries() map[string]Entry {
	return c.entries
}

// Each calls fn for every CVParameter (skipping the "backend" marker) in
// this category, in unspecified order.
func (c *Category) Each(fn func(key string, p *cvparam.CVParameter)) {
	for k, e := range c.entries {
		if k == "backend" {
			continue
		}
		if p, ok := AsParam(e); ok {
			fn(k, p)
		}
	}
}

// LocalConfig is the nested category->(key->value) mapping owned by a
// Finder. The root category is always "type" with a single backend "cv".
type LocalConfig struct {
	Categories map[string]*Category
}

// New constructs an empty LocalConfig seeded with the root "type" category.
func New() *LocalConfig {
	root := NewCategory("type", map[string]BackendSchema{
		"cv": func() map[string]*cvparam.CVParameter { return map[string]*cvparam.CVParameter{} },
	}, nil)
	_ = root.ConfigureBackend("cv", false)
	return &LocalConfig{Categories: map[string]*Category{"type": root}}
}

// AddCategory registers a new category, optionally inheriting (reset) from
// parentName.
func (lc *LocalConfig) AddCategory(name string, schemas map[string]BackendSchema, binders map[string]BindFunc, parentName string) *Category {
	cat := NewCategory(name, schemas, binders)
	if parentName != "" {
		cat.Parent = lc.Categories[parentName]
	}
	lc.Categories[name] = cat
	return cat
}

// Category looks up a category by name, returning (nil, false) if the
// component does not recognize it.
func (lc *LocalConfig) Category(name string) (*Category, bool) {
	c, ok := lc.Categories[name]
	return c, ok
}

// ConfigureBackend dispatches to the named category's ConfigureBackend,
// failing with ErrUnknownCategory if the category is not recognized
// (spec.md §4.B: "a category not recognized by the component fails with an
// UnsupportedBackend error" -- modeled here as the more specific
// ErrUnknownCategory since the category itself, not the backend name, is
// what's unrecognized).
func (lc *LocalConfig) ConfigureBackend(category, backend string, reset bool) error {
	cat, ok := lc.Categories[category]
	if !ok {
		return fmt.Errorf("%s: %w", category, ErrUnknownCategory)
	}
	return cat.ConfigureBackend(backend, reset)
}

// SynchronizeBackend dispatches to the named category's SynchronizeBackend.
func (lc *LocalConfig) SynchronizeBackend(category, backend string, reset bool) error {
	cat, ok := lc.Categories[category]
	if !ok {
		return fmt.Errorf("%s: %w", category, ErrUnknownCategory)
	}
	return cat.SynchronizeBackend(backend, reset)
}

// Configure regenerates the full schema for every category from its active
// backend's defaults.
func (lc *LocalConfig) Configure() error {
	for _, cat := range lc.Categories {
		if err := cat.Configure(); err != nil {
			return err
		}
	}
	return nil
}

// Synchronize rebinds every category's dependent library objects.
func (lc *LocalConfig) Synchronize() error {
	for _, cat := range lc.Categories {
		if cat.active == "" {
			continue
		}
		if err := cat.Synchronize(); err != nil {
			return err
		}
	}
	return nil
}
