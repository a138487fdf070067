package calibrator

import (
	"context"
	"time"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/target"
)

// runMatches executes one case against f, converting any structural problem
// (a case with no haystack raster), a returned error, or a recovered panic
// into an empty match list -- the uniform "similarity 0" fallback every run
// function below applies identically on this path (spec.md §4.G). The
// original's run functions wrap finder.find in a bare `except:` that
// catches literally anything; a calibration round feeds a finder parameter
// combinations that were never validated for mutual consistency (a twiddled
// kernel size or enumerated index can be out of range for whatever a
// backend does with it), so unlike the rest of this codebase -- which
// always returns errors and never recovers -- this one call site must
// convert a panic into the same outcome as an ordinary error. This is the
// only recover() in the module.
func runMatches(ctx context.Context, f finder.Finder, c Case) (matches []target.Match) {
	haystack, err := haystackImage(c.Haystack)
	if err != nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			matches = nil
		}
	}()
	m, err := f.Find(ctx, c.Needle, haystack)
	if err != nil {
		return nil
	}
	return m
}

// caseSimilarity runs c once and clears f's logger's per-attempt state
// afterward, mirroring the original's explicit finder.imglog.clear() call
// after every run -- required even when the caller has the logger under
// Accumulate, or hotmaps/similarities/locations would grow without bound
// across the hundreds of probes a calibration round performs.
func caseSimilarity(ctx context.Context, f finder.Finder, c Case) []target.Match {
	matches := runMatches(ctx, f, c)
	f.Logger().Clear()
	return matches
}

// RunDefault implements spec.md §4.G: error = 1 − mean_over_cases(similarity
// if maximizing else 1−similarity); a missing match contributes similarity 0.
func RunDefault(ctx context.Context, cases []Case, f finder.Finder, _ RunOptions) float64 {
	if len(cases) == 0 {
		return 1
	}
	var total float64
	for _, c := range cases {
		sim := 0.0
		if matches := caseSimilarity(ctx, f, c); len(matches) > 0 {
			sim = matches[0].Similarity
		}
		if c.Maximize {
			total += sim
		} else {
			total += 1 - sim
		}
	}
	return 1 - total/float64(len(cases))
}

// RunPerformance implements spec.md §4.G: RunDefault plus a linear penalty
// for the whole case list's wall time exceeding opts.MaxExecTime (default
// one second).
func RunPerformance(ctx context.Context, cases []Case, f finder.Finder, opts RunOptions) float64 {
	maxExec := opts.MaxExecTime
	if maxExec <= 0 {
		maxExec = time.Second
	}
	if len(cases) == 0 {
		return 1
	}

	start := time.Now()
	var total float64
	for _, c := range cases {
		sim := 0.0
		if matches := caseSimilarity(ctx, f, c); len(matches) > 0 {
			sim = matches[0].Similarity
		}
		if c.Maximize {
			total += sim
		} else {
			total += 1 - sim
		}
	}
	elapsed := time.Since(start)

	errv := 1 - total/float64(len(cases))
	if penalty := elapsed - maxExec; penalty > 0 {
		errv += penalty.Seconds()
	}
	return errv
}

// RunPeak implements spec.md §4.G: for each case, the mean over all matches
// of similarity at opts.PeakLocation and 1−similarity elsewhere; a case with
// no matches contributes plain similarity 0 like the other run functions.
func RunPeak(ctx context.Context, cases []Case, f finder.Finder, opts RunOptions) float64 {
	if len(cases) == 0 {
		return 1
	}
	var total float64
	for _, c := range cases {
		sim := 0.0
		if matches := caseSimilarity(ctx, f, c); len(matches) > 0 {
			var subtotal float64
			for _, m := range matches {
				if m.X == opts.PeakLocation.X && m.Y == opts.PeakLocation.Y {
					subtotal += m.Similarity
				} else {
					subtotal += 1 - m.Similarity
				}
			}
			sim = subtotal / float64(len(matches))
		}
		if c.Maximize {
			total += sim
		} else {
			total += 1 - sim
		}
	}
	return 1 - total/float64(len(cases))
}
