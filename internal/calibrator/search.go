package calibrator

import (
	"context"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/localconfig"
)

// snapshot captures every calibratable parameter's (Value, Delta) pair so
// Search can restore a finder's starting point before each random start and
// recall the overall best point afterward.
type snapshot map[*cvparam.CVParameter]paramState

type paramState struct {
	value cvparam.Value
	delta float64
}

func takeSnapshot(lc *localconfig.LocalConfig) snapshot {
	snap := make(snapshot)
	eachCalibratable(lc, func(_ *localconfig.Category, _ string, p *cvparam.CVParameter) {
		snap[p] = paramState{value: p.Value, delta: p.Delta}
	})
	return snap
}

func (snap snapshot) restore(lc *localconfig.LocalConfig) {
	eachCalibratable(lc, func(cat *localconfig.Category, key string, p *cvparam.CVParameter) {
		if s, ok := snap[p]; ok {
			setValue(cat, key, p, s.value)
			p.Delta = s.delta
		}
	})
}

// Search implements spec.md §4.G's multi-start wrapper: for each of
// randomStarts iterations, reset to the initial parameters, replace every
// non-fixed CVParameter's value with a random draw (uniform over its bounds
// when uniform is true, otherwise Gaussian centered on its current value
// with sigma equal to its delta), optionally calibrate from there, and keep
// whichever start produced the lowest error. The finder is left configured
// at the best point found.
func Search(ctx context.Context, c *Calibrator, f finder.Finder, randomStarts int, uniform bool, calibrate bool, maxAttempts int, opts RunOptions) error {
	lc := f.Settings()
	log := f.Logger()

	return log.Accumulate(func() error {
		initial := takeSnapshot(lc)
		bestError := c.Run(ctx, c.Cases, f, opts)
		best := initial

		for i := 0; i < randomStarts; i++ {
			initial.restore(lc)
			eachCalibratable(lc, func(cat *localconfig.Category, key string, p *cvparam.CVParameter) {
				var mu, sigma *float64
				if !uniform {
					if v, ok := numericOf(p.Value); ok {
						mu = &v
					}
					d := p.Delta
					sigma = &d
				}
				setValue(cat, key, p, p.RandomValue(mu, sigma))
			})

			var errv float64
			if calibrate {
				if err := Calibrate(ctx, c, f, maxAttempts, opts); err != nil {
					return err
				}
				errv = c.Run(ctx, c.Cases, f, opts)
			} else {
				errv = c.Run(ctx, c.Cases, f, opts)
			}

			if errv < bestError {
				bestError = errv
				best = takeSnapshot(lc)
			}
		}

		best.restore(lc)
		return nil
	})
}
