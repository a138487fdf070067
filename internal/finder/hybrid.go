package finder

import (
	"context"
	"image"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// HybridFinder iterates an ordered fallback chain: for each sub-target, use
// its own match settings if it carries any (target.OwnSettings), otherwise
// fall back to the hybrid's own default finder; the first sub-target
// producing a non-empty match list wins (spec.md §4.E.9). A non-Chain
// needle is treated as a length-1 chain.
//
// Steps-file document order is preserved exactly as parsed by
// internal/chainfile, including already-flattened nested chains (spec.md
// §9's Open Question on fallback order).
type HybridFinder struct {
	baseFinder
	defaultFinder Finder
}

func hybridSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity": similarityParam(0.8),
	}
}

// NewHybridFinder constructs a HybridFinder whose default matcher (used for
// any step not carrying its own settings) is defaultFinder.
func NewHybridFinder(log *imagelog.Logger, defaultFinder Finder) *HybridFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"hybrid": hybridSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "hybrid", false)
	return &HybridFinder{baseFinder: newBaseFinder(lc, log), defaultFinder: defaultFinder}
}

// Find walks the chain in order, stopping at the first step that yields a
// non-empty result.
func (f *HybridFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	steps := chainSteps(needle)

	var result []target.Match
	err := f.log.Accumulate(func() error {
		for _, step := range steps {
			if err := ctxDone(ctx); err != nil {
				return err
			}
			stepFinder := f.defaultFinder
			if own, ok := step.MatchSettings().(target.OwnSettings); ok && own.F != nil {
				stepFinder = own.F
			}
			matches, err := stepFinder.Find(ctx, step, haystack)
			if err != nil {
				continue
			}
			if len(matches) > 0 {
				result = matches
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var needleImg image.Image
	if img, ok := needle.(*target.Image); ok {
		needleImg = img.Raster
	}
	return f.finish(needleImg, haystack, result, imagelog.LevelInfo)
}

// chainSteps flattens needle into its ordered list of sub-targets, treating
// a non-Chain needle as a length-1 chain.
func chainSteps(needle target.Target) []target.Target {
	if chain, ok := needle.(*target.Chain); ok {
		return chain.Steps
	}
	return []target.Target{needle}
}
