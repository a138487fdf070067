// Package finder implements the Finder family: pluggable image/text/pattern
// matching backends sharing one capability-checked interface and one
// embeddable trait for the logging side effects every backend performs
// (spec.md §4.E, §9: "a single trait with two methods and explicit
// composition", mirroring the teacher's preference for flat composition
// over deep inheritance chains seen in internal/relevance's TierMatcher).
package finder

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// Finder is implemented by every matching backend. needle must already have
// been validated as compatible with the backend's Kind set; implementations
// re-check this via requireKind since Find may be called directly outside
// the calibrator/controller's own checks.
type Finder interface {
	Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error)
	Settings() *localconfig.LocalConfig
	// Logger exposes the backend's ImageLogger so internal/calibrator can
	// suspend emission (Accumulate) and discard per-attempt artifacts
	// (Clear) across the many probe calls a calibration round performs,
	// mirroring the original's explicit finder.imglog.clear() after every
	// run (spec.md §4.G).
	Logger() *imagelog.Logger
}

// baseFinder implements the shared pre/post-condition bookkeeping every
// concrete finder composes by embedding: the LocalConfig accessor and the
// needle/haystack/hotmap/match logging side effects common to every Find
// call (spec.md §4.E "Shared side effects"). It intentionally has no Find
// method of its own -- each backend supplies that.
type baseFinder struct {
	lc  *localconfig.LocalConfig
	log *imagelog.Logger
}

func newBaseFinder(lc *localconfig.LocalConfig, log *imagelog.Logger) baseFinder {
	return baseFinder{lc: lc, log: log}
}

// Settings returns the backend's LocalConfig, satisfying Finder.
func (b *baseFinder) Settings() *localconfig.LocalConfig { return b.lc }

// Logger returns the backend's ImageLogger, satisfying Finder.
func (b *baseFinder) Logger() *imagelog.Logger { return b.log }

// requireKind is the capability check shared by every backend: Text targets
// require a text finder, Pattern targets require cascade or deep, Chain
// requires hybrid, and so on.
func requireKind(needle target.Target, kinds ...target.Kind) error {
	got := needle.Kind()
	for _, k := range kinds {
		if got == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIncompatibleTarget, got)
}

// similarityOf returns needle.Similarity(), the threshold every backend
// compares its computed score against.
func similarityOf(needle target.Target) float64 { return needle.Similarity() }

// finish performs the shared post-match bookkeeping for one Find call:
// reset needle/haystack on the logger, record every accepted match, append
// the backend's own staged hotmaps (already added via b.log.AddHotmap by
// the caller) plus the canonical dump_matched_images overlay, and flush via
// imagelog.Log. It always runs, on both the success and the already-have-
// matches path, matching spec.md §4.E's "every call ... finally calls
// imglog.log(level)".
func (b *baseFinder) finish(needle, haystack image.Image, matches []target.Match, level imagelog.Level) ([]target.Match, error) {
	b.log.Reset(needle, haystack)
	for _, m := range matches {
		b.log.AddMatch(m)
	}
	name, overlay := dumpMatchedImages(haystack, matches)
	b.log.AddHotmap(name, overlay)
	if err := b.log.Log(level); err != nil {
		return matches, fmt.Errorf("%w: %v", ErrFind, err)
	}
	return matches, nil
}

// dumpMatchedImages builds the final canonical hotmap named
// "3hotmap-{similarity}" per spec.md §4.C: a copy of haystack with every
// accepted match's bounding box outlined. similarity in the name is the
// best (first, since matches are ordered best-first) match's score, or 0
// when nothing was found.
func dumpMatchedImages(haystack image.Image, matches []target.Match) (string, image.Image) {
	best := 0.0
	if len(matches) > 0 {
		best = matches[0].Similarity
	}
	name := fmt.Sprintf("3hotmap-%.4f", best)
	if haystack == nil {
		return name, image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	overlay := copyImage(haystack)
	for _, m := range matches {
		outlineRect(overlay, image.Rect(m.X, m.Y, m.X+m.W, m.Y+m.H), color.RGBA{0, 255, 0, 255})
	}
	return name, overlay
}

func copyImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

// outlineRect draws a 1px border of c around r, clipped to img's bounds.
func outlineRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	b := img.Bounds().Intersect(r)
	if b.Empty() {
		return
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// clamp01 clamps v into [0,1], used by correlation-surface backends that
// must guarantee a unit-interval similarity (spec.md §4.E.3 step 3).
func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ctxDone reports whether ctx has been cancelled, the check every backend
// performs at its natural iteration boundaries (spec.md §4.E note on ctx).
func ctxDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
