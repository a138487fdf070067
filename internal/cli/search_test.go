package cli

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/imagelog"
)

func TestSearchCommandPrintsBeforeAndAfter(t *testing.T) {
	dir := t.TempDir()
	log := imagelog.New(t.TempDir(), imagelog.LevelCritical, 3)

	needlePath := filepath.Join(dir, "needle.png")
	haystackPath := filepath.Join(dir, "haystack.png")
	writePNG(t, needlePath, 4, 4, color.White)
	writePNG(t, haystackPath, 4, 4, color.White)

	matchPath := filepath.Join(dir, "finder.match")
	writeMatchFile(t, matchPath, log)

	casesPath := filepath.Join(dir, "cases.json")
	writeCaseFile(t, casesPath, needlePath, haystackPath)

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"search", matchPath, "--cases", casesPath, "--starts", "1", "--max-attempts", "2"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "before")
	assert.Contains(t, out.String(), "after")
}
