package localconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/cvparam"
)

func templateSchemas() map[string]BackendSchema {
	return map[string]BackendSchema{
		"ccoeff_normed": func() map[string]*cvparam.CVParameter {
			return map[string]*cvparam.CVParameter{
				"nocolor": cvparam.NewBool(false),
			}
		},
		"sqdiff_normed": func() map[string]*cvparam.CVParameter {
			return map[string]*cvparam.CVParameter{
				"nocolor": cvparam.NewBool(true),
			}
		},
	}
}

func TestConfigureBackendSwitchesSchema(t *testing.T) {
	t.Parallel()

	lc := New()
	cat := lc.AddCategory("template", templateSchemas(), nil, "")

	require.NoError(t, lc.ConfigureBackend("template", "ccoeff_normed", false))
	p, ok := cat.Param("nocolor")
	require.True(t, ok)
	assert.Equal(t, cvparam.BoolValue(false), p.Value)

	require.NoError(t, lc.ConfigureBackend("template", "sqdiff_normed", false))
	p, ok = cat.Param("nocolor")
	require.True(t, ok)
	assert.Equal(t, cvparam.BoolValue(true), p.Value)
}

func TestConfigureUnsupportedBackend(t *testing.T) {
	t.Parallel()

	lc := New()
	lc.AddCategory("template", templateSchemas(), nil, "")

	err := lc.ConfigureBackend("template", "bogus", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestConfigureUnknownCategory(t *testing.T) {
	t.Parallel()

	lc := New()
	err := lc.ConfigureBackend("nope", "x", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSynchronizeWithoutConfigureFails(t *testing.T) {
	t.Parallel()

	lc := New()
	lc.AddCategory("template", templateSchemas(), nil, "")

	err := lc.SynchronizeBackend("template", "ccoeff_normed", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUninitializedBackend)
}

func TestSynchronizeCallsBinder(t *testing.T) {
	t.Parallel()

	lc := New()
	called := false
	binders := map[string]BindFunc{
		"ccoeff_normed": func(entries map[string]Entry) error {
			called = true
			return nil
		},
	}
	cat := lc.AddCategory("template", templateSchemas(), binders, "")
	_ = cat

	require.NoError(t, lc.ConfigureBackend("template", "ccoeff_normed", false))
	require.NoError(t, lc.SynchronizeBackend("template", "ccoeff_normed", false))
	assert.True(t, called)
}

func TestResetAppliesParentFirst(t *testing.T) {
	t.Parallel()

	lc := New()
	parent := lc.AddCategory("find", map[string]BackendSchema{
		"default": func() map[string]*cvparam.CVParameter {
			min, max := 0.0, 1.0
			sim, _ := cvparam.NewFloat(0.8, &min, &max)
			return map[string]*cvparam.CVParameter{"similarity": sim}
		},
	}, nil, "")
	require.NoError(t, parent.ConfigureBackend("default", false))

	child := lc.AddCategory("template", templateSchemas(), nil, "find")

	// Mutate the parent away from its configured state, then verify reset
	// re-applies the parent's configure before configuring the child.
	parent.SetParam("similarity", cvparam.NewBool(true))
	require.NoError(t, child.ConfigureBackend("ccoeff_normed", true))
	assert.Equal(t, "default", parent.active)
	p, ok := parent.Param("similarity")
	require.True(t, ok)
	assert.Equal(t, cvparam.FloatValue(0.8), p.Value)
}

func TestEachSkipsBackendMarker(t *testing.T) {
	t.Parallel()

	lc := New()
	cat := lc.AddCategory("template", templateSchemas(), nil, "")
	require.NoError(t, cat.ConfigureBackend("ccoeff_normed", false))

	seen := map[string]bool{}
	cat.Each(func(key string, p *cvparam.CVParameter) {
		seen[key] = true
	})
	assert.Equal(t, map[string]bool{"nocolor": true}, seen)
}
