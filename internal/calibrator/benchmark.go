package calibrator

import (
	"context"
	"sort"
	"time"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
)

// Result is one Benchmark entry: a backend's name, the similarity its
// single probe run achieved, and how long that run took (spec.md §4.G).
type Result struct {
	Method     string
	Similarity float64
	Elapsed    time.Duration
}

// BenchmarkOptions configures Benchmark's per-backend probe.
type BenchmarkOptions struct {
	RandomStarts int
	Uniform      bool
	Calibrate    bool
	MaxAttempts  int
	Run          RunOptions
}

// Benchmark enumerates every backend known to registry, probing each once
// (optionally preceded by Search or Calibrate) and returning the results
// sorted by similarity descending (spec.md §4.G). Every finder backend in
// this port owns exactly one "find" category with exactly one active
// backend rather than the original's many independently-swappable
// categories per finder (threshold/fdetect/fextract/... each with its own
// backend list), so the original's nested Cartesian product over category
// combinations collapses to a flat enumeration over registry.Names() here;
// each name already names one complete, fully-specified backend
// combination. Runs with the logger under Accumulate so the many probes
// don't each flush their own artifacts.
func Benchmark(ctx context.Context, c *Calibrator, registry *finder.Registry, log *imagelog.Logger, opts BenchmarkOptions) ([]Result, error) {
	var results []Result

	err := log.Accumulate(func() error {
		for _, name := range registry.Names() {
			f, err := registry.New(name, log)
			if err != nil {
				return err
			}

			if opts.RandomStarts > 0 {
				if err := Search(ctx, c, f, opts.RandomStarts, opts.Uniform, opts.Calibrate, opts.MaxAttempts, opts.Run); err != nil {
					return err
				}
			} else if opts.Calibrate {
				if err := Calibrate(ctx, c, f, opts.MaxAttempts, opts.Run); err != nil {
					return err
				}
			}

			start := time.Now()
			errv := c.Run(ctx, c.Cases, f, opts.Run)
			elapsed := time.Since(start)

			results = append(results, Result{Method: name, Similarity: 1 - errv, Elapsed: elapsed})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	return results, nil
}
