package cli

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkCommandRanksBackends(t *testing.T) {
	dir := t.TempDir()
	needlePath := filepath.Join(dir, "needle.png")
	haystackPath := filepath.Join(dir, "haystack.png")
	writePNG(t, needlePath, 4, 4, color.White)
	writePNG(t, haystackPath, 4, 4, color.White)

	casesPath := filepath.Join(dir, "cases.json")
	writeCaseFile(t, casesPath, needlePath, haystackPath)

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"benchmark", casesPath})
	require.NoError(t, root.Execute())
	assert.NotEmpty(t, out.String())
}
