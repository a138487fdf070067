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

// CascadeFinder performs binary accept/reject sliding-window detection
// using a Pattern's classifier data (spec.md §4.E.5). Similarity is a
// placeholder: it always reports the needle's configured threshold, since
// a cascade either accepts or rejects a window.
type CascadeFinder struct {
	baseFinder
	classifier Classifier
}

func cascadeSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity":   similarityParam(0.5),
		"scaleFactor":  floatParam(1.1, 1.01, 2, 0.05),
		"minNeighbors": intParam(3, 0, 100),
		"minWidth":     intParam(0, 0, 100000),
		"minHeight":    intParam(0, 0, 100000),
		"maxWidth":     intParam(0, 0, 100000),
		"maxHeight":    intParam(0, 0, 100000),
	}
}

// NewCascadeFinder constructs a CascadeFinder.
func NewCascadeFinder(log *imagelog.Logger) *CascadeFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"cascade": cascadeSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "cascade", false)
	return &CascadeFinder{baseFinder: newBaseFinder(lc, log)}
}

// Classifier abstracts a loaded cascade's accept/reject decision over a
// fixed-size window; cascade data formats (Haar/LBP XML) are out of scope
// here, so callers supply a loaded Classifier via SetClassifier rather than
// CascadeFinder parsing Pattern.Path itself.
type Classifier interface {
	// WindowSize is the classifier's trained detection window.
	WindowSize() (w, h int)
	// Accept reports whether the window at haystack[x:x+w, y:y+h] is a
	// positive detection.
	Accept(haystack image.Image, x, y int) bool
}

func (f *CascadeFinder) SetClassifier(c Classifier) { f.classifier = c }

func (f *CascadeFinder) intParam(name string, fallback int) int {
	cat, ok := f.lc.Category("find")
	if !ok {
		return fallback
	}
	p, ok := cat.Param(name)
	if !ok {
		return fallback
	}
	if v, ok := p.Value.(cvparam.IntValue); ok {
		return int(v)
	}
	return fallback
}

func (f *CascadeFinder) floatParam(name string, fallback float64) float64 {
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

// Find slides classifier-sized windows over haystack at successive scales
// (geometric series by scaleFactor), merging overlapping detections by
// requiring at least minNeighbors nearby accepts.
func (f *CascadeFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindPattern); err != nil {
		return nil, err
	}
	pat, ok := needle.(*target.Pattern)
	if !ok || pat.Class != target.PatternCascade {
		return nil, fmt.Errorf("%w: pattern is not a cascade", ErrIncompatibleTargetFile)
	}
	if f.classifier == nil {
		return nil, fmt.Errorf("%w: no classifier loaded", ErrUninitializedBackend)
	}

	scaleFactor := f.floatParam("scaleFactor", 1.1)
	minNeighbors := f.intParam("minNeighbors", 3)
	minW, minH := f.intParam("minWidth", 0), f.intParam("minHeight", 0)
	maxW, maxH := f.intParam("maxWidth", 0), f.intParam("maxHeight", 0)

	var raw []image.Rectangle
	ww, wh := f.classifier.WindowSize()
	hb := haystack.Bounds()
	scale := 1.0
	for {
		if err := ctxDone(ctx); err != nil {
			return nil, err
		}
		w, h := int(float64(ww)*scale), int(float64(wh)*scale)
		if w > hb.Dx() || h > hb.Dy() || w == 0 || h == 0 {
			break
		}
		if (maxW == 0 || w <= maxW) && (maxH == 0 || h <= maxH) && w >= minW && h >= minH {
			for y := hb.Min.Y; y+h <= hb.Max.Y; y += h / 4 {
				for x := hb.Min.X; x+w <= hb.Max.X; x += w / 4 {
					if f.classifier.Accept(haystack, x, y) {
						raw = append(raw, image.Rect(x, y, x+w, y+h))
					}
				}
			}
		}
		scale *= scaleFactor
		if scale > 8 {
			break
		}
	}

	groups := groupOverlapping(raw, minNeighbors)
	sim := similarityOf(needle)
	var matches []target.Match
	for _, g := range groups {
		matches = append(matches, target.Match{X: g.Min.X, Y: g.Min.Y, W: g.Dx(), H: g.Dy(), Similarity: sim})
	}

	return f.finish(nil, haystack, matches, imagelog.LevelInfo)
}

// groupOverlapping merges raw detections into groups of at least
// minNeighbors mutually overlapping rectangles, each group's bounding
// rectangle becoming one accepted match.
func groupOverlapping(raw []image.Rectangle, minNeighbors int) []image.Rectangle {
	used := make([]bool, len(raw))
	var groups []image.Rectangle
	for i, r := range raw {
		if used[i] {
			continue
		}
		group := r
		count := 1
		for j := i + 1; j < len(raw); j++ {
			if used[j] {
				continue
			}
			if !group.Overlaps(raw[j]) {
				continue
			}
			group = group.Union(raw[j])
			used[j] = true
			count++
		}
		used[i] = true
		if count >= minNeighbors || minNeighbors <= 1 {
			groups = append(groups, group)
		}
	}
	return groups
}
