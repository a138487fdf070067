package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandUse(t *testing.T) {
	assert.Equal(t, "guibot", rootCmd.Use)
}

func TestRootCommandSilencesUsageAndErrors(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCommandHasVerboseAndQuietFlags(t *testing.T) {
	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)

	q := rootCmd.PersistentFlags().Lookup("quiet")
	require.NotNil(t, q)
	assert.Equal(t, "q", q.Shorthand)
}

func TestExtractExitCodeNilIsSuccess(t *testing.T) {
	assert.Equal(t, int(ExitSuccess), extractExitCode(nil))
}

func TestExtractExitCodeGenericErrorIsExitError(t *testing.T) {
	assert.Equal(t, int(ExitError), extractExitCode(errors.New("boom")))
}

func TestExtractExitCodeGuibotErrorUsesItsCode(t *testing.T) {
	err := NewNoMatchError("no match")
	assert.Equal(t, int(ExitNoMatch), extractExitCode(err))
}

func TestVersionCommandRuns(t *testing.T) {
	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "guibot version")
}

func TestVersionCommandJSON(t *testing.T) {
	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"version"`)
}
