package cli

import (
	"bytes"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/casefile"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/matchfile"
)

func writeMatchFile(t *testing.T, path string, log *imagelog.Logger) {
	t.Helper()
	mf, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, matchfile.SaveFinder(mf, finder.NewAutoPyFinder(log)))
	require.NoError(t, mf.Close())
}

func writeCaseFile(t *testing.T, path, needlePath, haystackPath string) {
	t.Helper()
	payload, err := json.Marshal(casefile.File{Cases: []casefile.Entry{
		{NeedlePath: needlePath, HaystackPath: haystackPath, Maximize: true},
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o644))
}

func TestCalibrateCommandPrintsBeforeAndAfter(t *testing.T) {
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
	root.SetArgs([]string{"calibrate", matchPath, "--cases", casesPath, "--max-attempts", "3"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "before")
	assert.Contains(t, out.String(), "after")
}
