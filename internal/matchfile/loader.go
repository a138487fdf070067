package matchfile

import (
	"fmt"
	"io"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
)

// errMissingFindSection is returned by LoadFinder when the document has no
// "[find]" section, wrapped like the teacher's io-boundary errors.
var errMissingFindSection = fmt.Errorf("matchfile: missing [find] section: %w", io.ErrUnexpectedEOF)

// ToDocument serializes every category of lc into one section each, with a
// mandatory "backend" key plus one option per CVParameter stored via its
// text round-trip grammar (spec.md §4.F).
func ToDocument(lc *localconfig.LocalConfig) *Document {
	doc := NewDocument()
	for name, cat := range lc.Categories {
		sec := doc.AddSection(name)
		sec.Set("backend", cat.ActiveBackend())
		cat.Each(func(key string, p *cvparam.CVParameter) {
			sec.Set(key, p.String())
		})
	}
	return doc
}

// LoadLocalConfig configures every category of lc named by a section in
// doc. A section with no "backend" key is an error; a backend name the
// category does not recognize fails with ErrUnsupportedBackend via
// Category.ConfigureBackend. Sections naming a category lc does not have
// are ignored (the document may describe a superset of categories, e.g.
// when a match file was written for a HybridFinder's richer chain).
func LoadLocalConfig(doc *Document, lc *localconfig.LocalConfig) error {
	for _, sec := range doc.Sections() {
		cat, ok := lc.Category(sec.Name)
		if !ok {
			continue
		}
		backend, ok := sec.Get("backend")
		if !ok {
			return fmt.Errorf("matchfile: section %q missing backend key", sec.Name)
		}
		if err := cat.ConfigureBackend(backend, false); err != nil {
			return err
		}
		for _, key := range sec.Keys() {
			if key == "backend" {
				continue
			}
			raw, _ := sec.Get(key)
			p, err := cvparam.FromString(raw)
			if err != nil {
				return fmt.Errorf("matchfile: %s.%s: %w", sec.Name, key, err)
			}
			cat.SetParam(key, p)
		}
	}
	return nil
}

// LoadFinder reads a match file, selects the finder type from the "[find]"
// section's backend value via registry, and configures its LocalConfig
// from the remaining sections (spec.md §4.F). An unrecognized backend name
// fails with finder.ErrUnsupportedBackend.
func LoadFinder(r io.Reader, registry *finder.Registry, log *imagelog.Logger) (finder.Finder, error) {
	doc, err := Read(r)
	if err != nil {
		return nil, err
	}
	sec, ok := doc.Section("find")
	if !ok {
		return nil, errMissingFindSection
	}
	backend, ok := sec.Get("backend")
	if !ok {
		return nil, fmt.Errorf("matchfile: [find] section missing backend key")
	}
	f, err := registry.New(backend, log)
	if err != nil {
		return nil, err
	}
	if err := LoadLocalConfig(doc, f.Settings()); err != nil {
		return nil, err
	}
	return f, nil
}

// SaveFinder serializes f's LocalConfig to w.
func SaveFinder(w io.Writer, f finder.Finder) error {
	return Write(w, ToDocument(f.Settings()))
}
