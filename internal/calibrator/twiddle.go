package calibrator

import (
	"context"
	"math"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/localconfig"
)

// fixSimilarities zeroes and fixes every "similarity" parameter so that
// matching never short-circuits on threshold during calibration (spec.md
// §4.G step 1), returning a restore func that puts the original values and
// fixed flags back. "front_similarity" in a tempfeat category is handled
// the same way, matching the original's _prepare_params special case.
func fixSimilarities(lc *localconfig.LocalConfig) func() {
	type saved struct {
		cat   *localconfig.Category
		key   string
		value cvparam.Value
		fixed bool
	}
	var restores []saved

	zero := func(cat *localconfig.Category, key string) {
		p, ok := cat.Param(key)
		if !ok {
			return
		}
		restores = append(restores, saved{cat: cat, key: key, value: p.Value, fixed: p.Fixed})
		clone := p.Clone()
		clone.Value = cvparam.FloatValue(0)
		clone.Fixed = true
		cat.SetParam(key, clone)
	}

	for name, cat := range lc.Categories {
		if name == "type" {
			continue
		}
		zero(cat, "similarity")
		zero(cat, "front_similarity")
	}

	return func() {
		for _, s := range restores {
			p, ok := s.cat.Param(s.key)
			if !ok {
				continue
			}
			clone := p.Clone()
			clone.Value = s.value
			clone.Fixed = s.fixed
			s.cat.SetParam(s.key, clone)
		}
	}
}

// eachCalibratable calls fn for every category/key pair that calibrate and
// search are allowed to mutate: not the synthetic "backend" marker, not a
// Fixed parameter, and not a string-valued one (spec.md §4.G: "calibration
// not supported" for strings, matching the original's basestring skip).
func eachCalibratable(lc *localconfig.LocalConfig, fn func(cat *localconfig.Category, key string, p *cvparam.CVParameter)) {
	for name, cat := range lc.Categories {
		if name == "type" {
			continue
		}
		cat.Each(func(key string, p *cvparam.CVParameter) {
			if p.Fixed || p.Value.Kind() == cvparam.KindString {
				return
			}
			fn(cat, key, p)
		})
	}
}

// Calibrate performs spec.md §4.G's local "twiddle" search: a coordinate-
// wise hill climb with an adaptive step, run for at most maxAttempts rounds.
// Every non-fixed, non-string CVParameter across every category (other than
// the synthetic root "type" category) is nudged in turn; a move is kept
// when it strictly decreases the active Run function's error, with the
// step (Delta) scaled by 1.1 on acceptance and 0.9 on rejection. The
// maximum Delta observed during an accepted move is retained afterward as
// the parameter's final flat-region width, matching the original's
// max_delta bookkeeping.
func Calibrate(ctx context.Context, c *Calibrator, f finder.Finder, maxAttempts int, opts RunOptions) error {
	lc := f.Settings()
	restoreSimilarities := fixSimilarities(lc)
	defer restoreSimilarities()

	log := f.Logger()
	return log.Accumulate(func() error {
		bestError := c.Run(ctx, c.Cases, f, opts)
		maxDeltas := map[*cvparam.CVParameter]float64{}

		for attempt := 0; attempt < maxAttempts; attempt++ {
			if bestError == 0 {
				break
			}

			slowdown := true
			eachCalibratable(lc, func(cat *localconfig.Category, key string, p *cvparam.CVParameter) {
				if p.Converged() {
					return
				}
				slowdown = false

				improved, newBest := twiddleOne(ctx, c, f, opts, cat, key, p, bestError, maxDeltas)
				bestError = newBest
				_ = improved
			})

			if slowdown {
				break
			}
		}

		eachCalibratable(lc, func(cat *localconfig.Category, key string, p *cvparam.CVParameter) {
			if d, ok := maxDeltas[p]; ok {
				p.Delta = d
			} else if p.Fixed {
				p.Delta = 0
			}
		})
		return nil
	})
}

// twiddleOne performs one parameter's single-round twiddle step: try
// start+delta, fall back to start-delta, and on no improvement either way
// restore the start value and shrink delta. Returns whether the parameter
// improved and the (possibly unchanged) best error.
func twiddleOne(ctx context.Context, c *Calibrator, f finder.Finder, opts RunOptions, cat *localconfig.Category, key string, p *cvparam.CVParameter, bestError float64, maxDeltas map[*cvparam.CVParameter]float64) (bool, float64) {
	switch p.Value.Kind() {
	case cvparam.KindInt:
		if p.Enumerated {
			return twiddleEnumerated(ctx, c, f, opts, cat, key, p, bestError, maxDeltas)
		}
		return twiddleNumeric(ctx, c, f, opts, cat, key, p, bestError, maxDeltas, true)
	case cvparam.KindFloat:
		return twiddleNumeric(ctx, c, f, opts, cat, key, p, bestError, maxDeltas, false)
	case cvparam.KindBool:
		return twiddleBool(ctx, c, f, opts, cat, key, p, bestError)
	default:
		return false, bestError
	}
}

// setValue writes v into p's category entry via a cloned CVParameter so
// every history-tracking map above keys off the same *p object (SetParam
// replaces the stored Entry but twiddleOne's caller keeps holding the
// original *p it read from Param, matching the original's in-place param
// mutation).
func setValue(cat *localconfig.Category, key string, p *cvparam.CVParameter, v cvparam.Value) {
	p.Value = v
	cat.SetParam(key, p)
}

func boundedAdd(v, delta, max float64, hasMax bool) float64 {
	r := v + delta
	if hasMax && r > max {
		return max
	}
	return r
}

func boundedSub(v, delta, min float64, hasMin bool) float64 {
	r := v - delta
	if hasMin && r < min {
		return min
	}
	return r
}

func numericOf(v cvparam.Value) (float64, bool) {
	switch t := v.(type) {
	case cvparam.IntValue:
		return float64(t), true
	case cvparam.FloatValue:
		return float64(t), true
	default:
		return 0, false
	}
}

func twiddleNumeric(ctx context.Context, c *Calibrator, f finder.Finder, opts RunOptions, cat *localconfig.Category, key string, p *cvparam.CVParameter, bestError float64, maxDeltas map[*cvparam.CVParameter]float64, isInt bool) (bool, float64) {
	start, _ := numericOf(p.Value)
	minV, hasMin := numericOf(p.Min)
	maxV, hasMax := numericOf(p.Max)

	delta := p.Delta
	if isInt {
		delta = math.Ceil(delta)
	}

	up := boundedAdd(start, delta, maxV, hasMax)
	setValue(cat, key, p, asKind(up, isInt))
	errUp := c.Run(ctx, c.Cases, f, opts)
	if errUp < bestError {
		p.Delta *= 1.1
		maxDeltas[p] = math.Max(maxDeltas[p], p.Delta)
		return true, errUp
	}

	down := boundedSub(start, delta, minV, hasMin)
	setValue(cat, key, p, asKind(down, isInt))
	errDown := c.Run(ctx, c.Cases, f, opts)
	if errDown < bestError {
		p.Delta *= 1.1
		maxDeltas[p] = math.Max(maxDeltas[p], p.Delta)
		return true, errDown
	}

	setValue(cat, key, p, asKind(start, isInt))
	p.Delta *= 0.9
	return false, bestError
}

func asKind(v float64, isInt bool) cvparam.Value {
	if isInt {
		return cvparam.IntValue(int64(math.Round(v)))
	}
	return cvparam.FloatValue(v)
}

func twiddleBool(ctx context.Context, c *Calibrator, f finder.Finder, opts RunOptions, cat *localconfig.Category, key string, p *cvparam.CVParameter, bestError float64) (bool, float64) {
	start := bool(p.Value.(cvparam.BoolValue))
	setValue(cat, key, p, cvparam.BoolValue(!start))
	errFlipped := c.Run(ctx, c.Cases, f, opts)
	if errFlipped < bestError {
		return true, errFlipped
	}
	setValue(cat, key, p, cvparam.BoolValue(start))
	return false, bestError
}

// twiddleEnumerated sweeps every integer value in [min,max) other than the
// start value and keeps the best, scaling delta by 1.1 if any improved and
// 0.9 otherwise (spec.md §4.G step 2.b).
func twiddleEnumerated(ctx context.Context, c *Calibrator, f finder.Finder, opts RunOptions, cat *localconfig.Category, key string, p *cvparam.CVParameter, bestError float64, maxDeltas map[*cvparam.CVParameter]float64) (bool, float64) {
	start := int64(p.Value.(cvparam.IntValue))
	minV := int64(p.Min.(cvparam.IntValue))
	maxV := int64(p.Max.(cvparam.IntValue))

	improved := false
	best := bestError
	bestValue := start
	for mode := minV; mode < maxV; mode++ {
		if mode == start {
			continue
		}
		setValue(cat, key, p, cvparam.IntValue(mode))
		errv := c.Run(ctx, c.Cases, f, opts)
		if errv < best {
			best = errv
			bestValue = mode
			improved = true
		}
	}
	setValue(cat, key, p, cvparam.IntValue(bestValue))

	if improved {
		p.Delta *= 1.1
		maxDeltas[p] = math.Max(maxDeltas[p], p.Delta)
	} else {
		p.Delta *= 0.9
	}
	return improved, best
}
