// Package calibrator implements automatic selection and tuning of a
// Finder's CVParameters for a fixed set of (needle, haystack) match cases:
// local "twiddle" hill-climbing (Calibrate), multi-start random search
// (Search), and exhaustive backend enumeration (Benchmark). See spec.md
// §4.G.
package calibrator

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/target"
)

// Case is one match case a calibration run is scored against: a needle to
// search for, a haystack to search within, and whether a high similarity is
// good (Maximize) or bad (minimizing, e.g. a deliberately absent needle used
// to calibrate against false positives).
type Case struct {
	Needle   target.Target
	Haystack target.Target
	Maximize bool
}

// haystackImage extracts the raster image a finder.Find call needs out of a
// Case's Haystack target. Only *target.Image carries one; any other kind in
// a case list is a configuration mistake, not a matching failure, so it is
// reported distinctly from an ordinary missing match.
func haystackImage(t target.Target) (image.Image, error) {
	img, ok := t.(*target.Image)
	if !ok || img.Raster == nil {
		return nil, fmt.Errorf("%w: %T", ErrInvalidCase, t)
	}
	return img.Raster, nil
}

// RunOptions carries the optional per-call tuning knobs used by
// RunPerformance (MaxExecTime) and RunPeak (PeakLocation); RunDefault
// ignores both.
type RunOptions struct {
	MaxExecTime  time.Duration // 0 defaults to one second, matching the original's max_exec_time=1.0
	PeakLocation image.Point
}

// RunFunc computes a scalar error (lower is better, 0 is perfect) for f
// across every case. The three implementations below are interchangeable;
// Calibrator.Run holds whichever is active (spec.md §4.G: "this attribute
// can be changed to use a different run function").
type RunFunc func(ctx context.Context, cases []Case, f finder.Finder, opts RunOptions) float64

// Calibrator drives repeated finder.Find calls over a fixed case list to
// either measure (Run) or improve (Calibrate, Search) a finder's parameters.
type Calibrator struct {
	Cases []Case
	Run   RunFunc
}

// New constructs a Calibrator over cases with RunDefault active.
func New(cases ...Case) *Calibrator {
	return &Calibrator{Cases: cases, Run: RunDefault}
}
