package finder

import (
	"context"
	"fmt"
	"image"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// TemplateFeatureFinder runs a coarse template pass at a lowered threshold
// to propose candidate locations, then verifies each with the feature
// pipeline; template's location is kept (more stable) but the feature
// similarity is reported. If every candidate turns out feature-poor
// (similarity exactly 0), it falls back to the template matches that met
// find.similarity (spec.md §4.E.7's Open Question, preserved verbatim).
type TemplateFeatureFinder struct {
	baseFinder
	template *TemplateFinder
	feature  *FeatureFinder
}

func tempfeatSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity":       similarityParam(0.6),
		"front_similarity": similarityParam(0.4),
	}
}

// NewTemplateFeatureFinder constructs a TemplateFeatureFinder sharing the
// given imagelog.Logger with its embedded template and feature finders so
// nested stages accumulate into one logical step.
func NewTemplateFeatureFinder(log *imagelog.Logger) *TemplateFeatureFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"tempfeat": tempfeatSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "tempfeat", false)
	return &TemplateFeatureFinder{
		baseFinder: newBaseFinder(lc, log),
		template:   NewTemplateFinder(log),
		feature:    NewFeatureFinder(log),
	}
}

func (f *TemplateFeatureFinder) floatParam(name string, fallback float64) float64 {
	cat, ok := f.lc.Category("find")
	if !ok {
		return fallback
	}
	p, ok := cat.Param(name)
	if !ok {
		return fallback
	}
	if v, ok := p.Value.(cvparam.FloatValue); ok {
		return float64(v)
	}
	return fallback
}

// Find implements the two-similarity hybrid procedure.
func (f *TemplateFeatureFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindImage); err != nil {
		return nil, err
	}
	img, ok := needle.(*target.Image)
	if !ok || img.Raster == nil {
		return nil, fmt.Errorf("%w: needle raster not loaded", ErrIncompatibleTarget)
	}

	frontSimilarity := f.floatParam("front_similarity", 0.4)
	finalThreshold := similarityOf(needle)

	var result []target.Match
	err := f.log.Accumulate(func() error {
		frontNeedle := target.NewImage(img.Raster, img.Filename)
		frontNeedle.SetSimilarity(frontSimilarity)

		candidates, err := f.template.Find(ctx, frontNeedle, haystack)
		if err != nil {
			return err
		}

		nb := img.Raster.Bounds()
		var featureMatches []target.Match
		var fallback []target.Match
		for _, c := range candidates {
			if c.Similarity >= finalThreshold {
				fallback = append(fallback, c)
			}
			window := image.Rect(c.X, c.Y, c.X+nb.Dx(), c.Y+nb.Dy())
			crop := cropImage(haystack, window)

			featureNeedle := target.NewImage(img.Raster, img.Filename)
			featureNeedle.SetSimilarity(finalThreshold)
			matches, ferr := f.feature.Find(ctx, featureNeedle, crop)
			if ferr != nil || len(matches) == 0 {
				continue
			}
			m := matches[0]
			featureMatches = append(featureMatches, target.Match{
				X: c.X, Y: c.Y, W: nb.Dx(), H: nb.Dy(), Similarity: m.Similarity,
			})
		}

		if allFeaturePoor(featureMatches) && len(fallback) > 0 {
			result = fallback
			return nil
		}
		result = featureMatches
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortMatchesDescending(result)
	return f.finish(img.Raster, haystack, result, imagelog.LevelInfo)
}

func allFeaturePoor(matches []target.Match) bool {
	if len(matches) == 0 {
		return true
	}
	for _, m := range matches {
		if m.Similarity != 0 {
			return false
		}
	}
	return true
}
