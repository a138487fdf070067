package target

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int, fill color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoadImageCachesByFilename(t *testing.T) {
	ClearImageCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "needle.png")
	writeTestPNG(t, path, 4, 4, color.RGBA{255, 0, 0, 255})

	img1, err := LoadImage(path)
	require.NoError(t, err)
	img2, err := LoadImage(path)
	require.NoError(t, err)

	// Same decoded instance returned from the cache (pointer identity via
	// the underlying image.Image, not merely equal content).
	assert.Same(t, img1, img2)
}

func TestLoadImageConcurrentDedup(t *testing.T) {
	ClearImageCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "needle.png")
	writeTestPNG(t, path, 8, 8, color.RGBA{0, 255, 0, 255})

	const n = 16
	results := make([]image.Image, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			img, err := LoadImage(path)
			require.NoError(t, err)
			results[i] = img
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	ClearImageCache()
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestSettingsEnumDistinctTypes(t *testing.T) {
	img := NewImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), "x.png")
	assert.IsType(t, InheritSettings{}, img.MatchSettings())

	img.SetSettings(OwnSettings{F: nil})
	assert.IsType(t, OwnSettings{}, img.MatchSettings())
}

func TestChainKindAndSteps(t *testing.T) {
	img := NewImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), "a.png")
	txt := NewText("hello")
	chain := NewChain([]Target{img, txt})
	assert.Equal(t, KindChain, chain.Kind())
	require.Len(t, chain.Steps, 2)
	assert.Equal(t, KindImage, chain.Steps[0].Kind())
	assert.Equal(t, KindText, chain.Steps[1].Kind())
}

func TestMatchTranslatedAndCenter(t *testing.T) {
	m := Match{X: 10, Y: 20, W: 30, H: 40, DX: 1, DY: -1, Similarity: 0.9}
	m2 := m.Translated(5, 5)
	assert.Equal(t, 15, m2.X)
	assert.Equal(t, 25, m2.Y)
	assert.Equal(t, m.Similarity, m2.Similarity)

	cx, cy := m.Center()
	assert.Equal(t, 10+15+1, cx)
	assert.Equal(t, 20+20-1, cy)
}
