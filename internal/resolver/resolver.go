// Package resolver implements the pluggable file-lookup interface target
// loading goes through: a registered list of directories searched in order,
// each file retried under a fixed set of target-data extensions (spec.md
// §6).
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Resolver is the pluggable file-lookup interface (spec.md §6).
type Resolver interface {
	// AddPath registers dir for future Search calls, a no-op if already
	// registered. ignoreFile, when non-empty, is compiled as a gitignore
	// pattern file (e.g. a ".guibotignore" beside dir) whose matches are
	// excluded from consideration under this directory.
	AddPath(dir, ignoreFile string) error
	// RemovePath unregisters dir, reporting whether it had been registered.
	RemovePath(dir string) bool
	// Clear unregisters every directory.
	Clear()
	// Search looks for name under every registered directory, in
	// registration order, retrying the fixed extension list on a bare miss.
	// restriction, when non-empty, is a doublestar glob that a candidate
	// path must match to be considered. If no file is found: silent=true
	// returns ("", false, nil); silent=false returns a wrapped
	// ErrFileNotFound.
	Search(name, restriction string, silent bool) (string, bool, error)
}

// searchExtensions are retried in order after the bare name, per spec.md §6.
var searchExtensions = []string{"", ".png", ".xml", ".txt", ".csv", ".steps"}

// DefaultResolver is the standard Resolver: an ordered directory list with
// optional per-directory gitignore exclusion.
type DefaultResolver struct {
	mu     sync.Mutex
	paths  []string
	ignore map[string]*gitignore.GitIgnore
}

// NewDefaultResolver constructs an empty DefaultResolver.
func NewDefaultResolver() *DefaultResolver {
	return &DefaultResolver{ignore: make(map[string]*gitignore.GitIgnore)}
}

func (r *DefaultResolver) AddPath(dir, ignoreFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.paths {
		if p == dir {
			return nil
		}
	}
	r.paths = append(r.paths, dir)

	if ignoreFile != "" {
		m, err := gitignore.CompileIgnoreFile(ignoreFile)
		if err != nil {
			return fmt.Errorf("resolver: load ignore file %s: %w", ignoreFile, err)
		}
		r.ignore[dir] = m
	}
	return nil
}

func (r *DefaultResolver) RemovePath(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.paths {
		if p == dir {
			r.paths = append(r.paths[:i], r.paths[i+1:]...)
			delete(r.ignore, dir)
			return true
		}
	}
	return false
}

func (r *DefaultResolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = nil
	r.ignore = make(map[string]*gitignore.GitIgnore)
}

func (r *DefaultResolver) Search(name, restriction string, silent bool) (string, bool, error) {
	r.mu.Lock()
	paths := append([]string(nil), r.paths...)
	r.mu.Unlock()

	for _, dir := range paths {
		for _, ext := range searchExtensions {
			candidate := filepath.Join(dir, name+ext)

			if restriction != "" {
				matched, err := doublestar.Match(restriction, filepath.ToSlash(candidate))
				if err != nil {
					return "", false, fmt.Errorf("%w: %v", ErrInvalidRestriction, err)
				}
				if !matched {
					continue
				}
			}

			if r.ignored(dir, candidate) {
				continue
			}

			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			}
		}
	}

	if !silent {
		return "", false, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return "", false, nil
}

func (r *DefaultResolver) ignored(dir, candidate string) bool {
	r.mu.Lock()
	m, ok := r.ignore[dir]
	r.mu.Unlock()
	if !ok {
		return false
	}
	rel, err := filepath.Rel(dir, candidate)
	if err != nil {
		return false
	}
	return m.MatchesPath(filepath.ToSlash(rel))
}
