package casefile

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadResolvesEveryEntryToACase(t *testing.T) {
	dir := t.TempDir()
	needlePath := filepath.Join(dir, "needle.png")
	haystackPath := filepath.Join(dir, "haystack.png")
	writePNG(t, needlePath, 4, 4, color.White)
	writePNG(t, haystackPath, 8, 8, color.Black)

	casesPath := filepath.Join(dir, "cases.json")
	payload, err := json.Marshal(File{Cases: []Entry{
		{NeedlePath: needlePath, HaystackPath: haystackPath, Maximize: true},
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(casesPath, payload, 0o644))

	cases, err := Load(casesPath)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.True(t, cases[0].Maximize)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadMissingNeedleImageReturnsError(t *testing.T) {
	dir := t.TempDir()
	haystackPath := filepath.Join(dir, "haystack.png")
	writePNG(t, haystackPath, 4, 4, color.White)

	casesPath := filepath.Join(dir, "cases.json")
	payload, err := json.Marshal(File{Cases: []Entry{
		{NeedlePath: filepath.Join(dir, "missing.png"), HaystackPath: haystackPath},
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(casesPath, payload, 0o644))

	_, err = Load(casesPath)
	assert.Error(t, err)
}
