package imagelog

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/target"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestLogSkipsBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "out"), LevelWarning, 4)
	l.Reset(solidImage(2, 2, color.White), solidImage(4, 4, color.Black))
	l.AddHotmap("1threshold", solidImage(2, 2, color.White))

	require.NoError(t, l.Log(LevelDebug))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestLogMissingHotmapErrors(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "out"), LevelDebug, 4)
	l.Reset(solidImage(2, 2, color.White), solidImage(2, 2, color.White))

	err := l.Log(LevelInfo)
	assert.ErrorIs(t, err, ErrMissingHotmap)
}

func TestLogFlushesAndIncrementsStep(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	l := New(dest, LevelDebug, 4)

	l.Reset(solidImage(2, 2, color.White), solidImage(4, 4, color.Black))
	l.AddHotmap("1threshold", solidImage(2, 2, color.White))
	l.AddMatch(target.Match{X: 1, Y: 1, W: 2, H: 2, Similarity: 0.9})
	require.NoError(t, l.Log(LevelInfo))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	// 1needle + 2haystack + 1threshold
	assert.Len(t, entries, 3)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["imglog0001-1needle.png"])
	assert.True(t, names["imglog0001-2haystack.png"])
	assert.True(t, names["imglog0001-1threshold.png"])

	// A second logged step must use step 2 and must NOT wipe step 1's files.
	l.Reset(solidImage(2, 2, color.White), solidImage(4, 4, color.Black))
	l.AddHotmap("1threshold", solidImage(2, 2, color.White))
	require.NoError(t, l.Log(LevelInfo))

	entries, err = os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestLogWipesDestinationOnFirstStepOnly(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	stale := filepath.Join(dest, "stale.png")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	l := New(dest, LevelDebug, 4)
	l.Reset(solidImage(2, 2, color.White), solidImage(2, 2, color.White))
	l.AddHotmap("1threshold", solidImage(2, 2, color.White))
	require.NoError(t, l.Log(LevelInfo))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestAccumulateSuppressesNestedFlush(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	l := New(dest, LevelDebug, 4)

	err := l.Accumulate(func() error {
		l.Reset(solidImage(2, 2, color.White), solidImage(2, 2, color.White))
		l.AddHotmap("1inner", solidImage(2, 2, color.White))
		// A nested Log call while accumulating must not flush or error.
		return l.Log(LevelInfo)
	})
	require.NoError(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "accumulated step must not flush to disk")

	// Hotmaps recorded during accumulation survive for the enclosing flush.
	l.AddHotmap("2outer", solidImage(2, 2, color.White))
	require.NoError(t, l.Log(LevelInfo))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["imglog0001-1inner.png"])
	assert.True(t, names["imglog0001-2outer.png"])
}

func TestLogDedupesIdenticalConsecutiveHotmaps(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	l := New(dest, LevelDebug, 4)

	same := solidImage(3, 3, color.RGBA{10, 20, 30, 255})
	l.Reset(nil, nil)
	l.AddHotmap("1a", same)
	l.AddHotmap("2b", same)
	require.NoError(t, l.Log(LevelInfo))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAddMatchKeepsSimilaritiesAndLocationsParallel(t *testing.T) {
	l := New(t.TempDir(), LevelDebug, 4)
	l.AddMatch(target.Match{X: 0, Y: 0, W: 1, H: 1, Similarity: 0.5})
	l.AddMatch(target.Match{X: 1, Y: 1, W: 1, H: 1, Similarity: 0.7})

	require.Len(t, l.Similarities(), 2)
	require.Len(t, l.Locations(), 2)
	assert.Equal(t, 0.5, l.Similarities()[0])
	assert.Equal(t, 0.7, l.Similarities()[1])
}
