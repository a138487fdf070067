package cli

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/matchfile"
)

func writeImageStep(t *testing.T, dir, name string, log *imagelog.Logger) string {
	t.Helper()
	dataPath := filepath.Join(dir, name+".png")
	writePNG(t, dataPath, 4, 4, color.White)

	matchPath := filepath.Join(dir, name+".match")
	mf, err := os.Create(matchPath)
	require.NoError(t, err)
	require.NoError(t, matchfile.SaveFinder(mf, finder.NewAutoPyFinder(log)))
	require.NoError(t, mf.Close())
	return dataPath
}

func TestChainListFlattensSteps(t *testing.T) {
	dir := t.TempDir()
	log := imagelog.New(t.TempDir(), imagelog.LevelCritical, 3)
	dataPath := writeImageStep(t, dir, "a", log)

	stepsPath := filepath.Join(dir, "chain.steps")
	require.NoError(t, os.WriteFile(stepsPath, []byte(fmt.Sprintf("%s\t%s\n", dataPath, dataPath)), 0o644))

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"chain", "list", stepsPath})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "image")
	assert.Contains(t, out.String(), dataPath)
}

func TestChainRunFindsAMatch(t *testing.T) {
	dir := t.TempDir()
	log := imagelog.New(t.TempDir(), imagelog.LevelCritical, 3)
	dataPath := writeImageStep(t, dir, "a", log)

	stepsPath := filepath.Join(dir, "chain.steps")
	require.NoError(t, os.WriteFile(stepsPath, []byte(fmt.Sprintf("%s\t%s\n", dataPath, dataPath)), 0o644))

	haystackPath := filepath.Join(dir, "haystack.png")
	writePNG(t, haystackPath, 4, 4, color.White)

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"chain", "run", stepsPath, "--haystack", haystackPath})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "similarity=")
}
