// Package chainfile implements the steps-file codec: a recursive-descent
// parser/writer for the fallback-chain sequence format (spec.md §6, §9).
// Load flattens nested ".steps" references in place, in document order,
// tracking the resolved absolute path of every file on the current
// recursion branch to detect cycles; the original's exec-like recursive
// `load` is replaced with an explicit visited-path set per spec.md §9.
package chainfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/matchfile"
	"github.com/guibot-go/guibot/internal/resolver"
	"github.com/guibot-go/guibot/internal/target"
)

// Load reads the steps file at path (resolved through r if not found as
// given) and returns the fully flattened Chain: every leaf step (Image,
// Pattern, or Text) in document order, with nested ".steps" references
// spliced in place (spec.md §6, §9).
func Load(ctx context.Context, r resolver.Resolver, registry *finder.Registry, log *imagelog.Logger, path string) (*target.Chain, error) {
	steps, err := loadSteps(ctx, r, registry, log, path, map[string]struct{}{})
	if err != nil {
		return nil, err
	}
	return target.NewChain(steps), nil
}

func loadSteps(ctx context.Context, r resolver.Resolver, registry *finder.Registry, log *imagelog.Logger, path string, visited map[string]struct{}) ([]target.Target, error) {
	resolved, err := resolvePath(r, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("chainfile: %w", err)
	}
	if _, ok := visited[abs]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCyclicChain, abs)
	}
	visited[abs] = struct{}{}
	defer delete(visited, abs)

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("chainfile: %w", err)
	}
	defer f.Close()

	var steps []target.Target
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctxDone(ctx); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("chainfile: %s line %d: expected 2 tab-separated fields, got %d", abs, lineNo, len(fields))
		}
		data, config := fields[0], fields[1]

		stepTargets, err := loadStep(ctx, r, registry, log, data, config, visited)
		if err != nil {
			return nil, fmt.Errorf("chainfile: %s line %d: %w", abs, lineNo, err)
		}
		steps = append(steps, stepTargets...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("chainfile: %w", err)
	}
	return steps, nil
}

// loadStep builds the target(s) named by one steps-file line. A ".steps"
// data path yields the nested chain's flattened steps (zero or more); every
// other recognized extension yields exactly one leaf target.
func loadStep(ctx context.Context, r resolver.Resolver, registry *finder.Registry, log *imagelog.Logger, data, config string, visited map[string]struct{}) ([]target.Target, error) {
	ext := strings.ToLower(filepath.Ext(data))

	if ext == ".steps" {
		nestedPath, err := resolvePath(r, data)
		if err != nil {
			return nil, err
		}
		return loadSteps(ctx, r, registry, log, nestedPath, visited)
	}

	dataPath, err := resolvePath(r, data)
	if err != nil {
		return nil, err
	}
	f, err := loadStepFinder(r, registry, log, config)
	if err != nil {
		return nil, err
	}

	switch ext {
	case ".png", ".jpg":
		raster, err := target.LoadImage(dataPath)
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		img := target.NewImage(raster, dataPath)
		img.SetSettings(target.OwnSettings{F: f})
		if sim, ok := similarityOf(f); ok {
			img.SetSimilarity(sim)
		}
		return []target.Target{img}, nil

	case ".xml":
		p := target.NewPattern(dataPath, target.PatternCascade)
		p.SetSettings(target.OwnSettings{F: f})
		if sim, ok := similarityOf(f); ok {
			p.SetSimilarity(sim)
		}
		return []target.Target{p}, nil

	case ".csv", ".pth":
		p := target.NewPattern(dataPath, target.PatternDeepNet)
		p.SetSettings(target.OwnSettings{F: f})
		if sim, ok := similarityOf(f); ok {
			p.SetSimilarity(sim)
		}
		return []target.Target{p}, nil

	case ".txt":
		contents, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, fmt.Errorf("chainfile: %w", err)
		}
		txt := target.NewText(string(contents))
		txt.SourceFile = dataPath
		txt.SetSettings(target.OwnSettings{F: f})
		if sim, ok := similarityOf(f); ok {
			txt.SetSimilarity(sim)
		}
		return []target.Target{txt}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrIncompatibleTargetFile, data)
	}
}

// loadStepFinder reads config's sibling ".match" file and constructs the
// backend it names, mirroring the original's Target.load match-file lookup.
func loadStepFinder(r resolver.Resolver, registry *finder.Registry, log *imagelog.Logger, config string) (finder.Finder, error) {
	matchPath := stripExt(config) + ".match"
	resolved, err := resolvePath(r, matchPath)
	if err != nil {
		return nil, fmt.Errorf("step match file: %w", err)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()
	return matchfile.LoadFinder(f, registry, log)
}

// similarityOf reads f's "find.similarity" parameter, if present and
// numeric, so a loaded step's Target.Similarity reflects its own settings
// rather than the struct default.
func similarityOf(f finder.Finder) (float64, bool) {
	cat, ok := f.Settings().Category("find")
	if !ok {
		return 0, false
	}
	p, ok := cat.Param("similarity")
	if !ok {
		return 0, false
	}
	switch v := p.Value.(type) {
	case cvparam.FloatValue:
		return float64(v), true
	case cvparam.IntValue:
		return float64(v), true
	default:
		return 0, false
	}
}

// resolvePath mirrors the original's "use as given, else ask the resolver"
// lookup: name is returned unchanged if it exists on disk, otherwise it is
// resolved (non-silently, so a genuine miss surfaces resolver.ErrFileNotFound).
func resolvePath(r resolver.Resolver, name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	found, _, err := r.Search(name, "", false)
	if err != nil {
		return "", err
	}
	return found, nil
}

func stripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func ctxDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
