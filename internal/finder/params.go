package finder

import "github.com/guibot-go/guibot/internal/cvparam"

// The following constructors wrap cvparam's fallible constructors for use
// inside BackendSchema literals, where every bound is a compile-time
// constant and therefore never actually fails; panicking surfaces a
// programmer error immediately rather than threading an error return
// through every schema function.

func f64p(v float64) *float64 { return &v }
func i64p(v int64) *int64     { return &v }

func floatParam(value float64, min, max float64, delta float64) *cvparam.CVParameter {
	p, err := cvparam.NewFloat(value, f64p(min), f64p(max))
	if err != nil {
		panic(err)
	}
	p.Delta = delta
	p.Tolerance = 0.01
	return p
}

func intParam(value int64, min, max int64) *cvparam.CVParameter {
	p, err := cvparam.NewInt(value, i64p(min), i64p(max))
	if err != nil {
		panic(err)
	}
	return p
}

func boolParam(value bool) *cvparam.CVParameter { return cvparam.NewBool(value) }

func stringParam(value string) *cvparam.CVParameter { return cvparam.NewString(value) }

func similarityParam(value float64) *cvparam.CVParameter {
	return floatParam(value, 0, 1, 0.1)
}
