package finder

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/target"
)

type fakeOCREngine struct{ text string }

func (f fakeOCREngine) Recognize(image.Image) (string, error) { return f.text, nil }

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pasteAt(dst *image.RGBA, src image.Image, x, y int) {
	b := src.Bounds()
	for yy := b.Min.Y; yy < b.Max.Y; yy++ {
		for xx := b.Min.X; xx < b.Max.X; xx++ {
			dst.Set(x+xx-b.Min.X, y+yy-b.Min.Y, src.At(xx, yy))
		}
	}
}

func newLogger(t *testing.T) *imagelog.Logger {
	t.Helper()
	return imagelog.New(t.TempDir(), imagelog.LevelDebug, 4)
}

func TestAutoPyFinderExactMatch(t *testing.T) {
	haystack := solid(40, 40, color.RGBA{10, 10, 10, 255})
	needle := solid(5, 5, color.RGBA{250, 0, 0, 255})
	pasteAt(haystack, needle, 12, 20)

	f := NewAutoPyFinder(newLogger(t))
	n := target.NewImage(needle, "needle.png")
	n.SetSimilarity(0.99)

	matches, err := f.Find(context.Background(), n, haystack)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 12, matches[0].X)
	assert.Equal(t, 20, matches[0].Y)
}

func TestAutoPyFinderRejectsWrongKind(t *testing.T) {
	f := NewAutoPyFinder(newLogger(t))
	_, err := f.Find(context.Background(), target.NewText("hi"), solid(4, 4, color.White))
	assert.ErrorIs(t, err, ErrIncompatibleTarget)
}

func TestTemplateFinderFindsSingleBest(t *testing.T) {
	haystack := solid(50, 50, color.RGBA{5, 5, 5, 255})
	needle := solid(6, 6, color.RGBA{200, 200, 0, 255})
	pasteAt(haystack, needle, 30, 10)

	f := NewTemplateFinder(newLogger(t))
	n := target.NewImage(needle, "needle.png")
	n.SetSimilarity(0) // single-best-match escape hatch

	matches, err := f.Find(context.Background(), n, haystack)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 30, matches[0].X, 1)
	assert.InDelta(t, 10, matches[0].Y, 1)
}

func TestTemplateFinderUnsupportedMethod(t *testing.T) {
	f := NewTemplateFinder(newLogger(t))
	cat, _ := f.lc.Category("find")
	cat.SetParam("method", stringParam("bogus"))
	n := target.NewImage(solid(2, 2, color.White), "n.png")
	_, err := f.Find(context.Background(), n, solid(10, 10, color.White))
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestContourFinderMatchesSimilarShape(t *testing.T) {
	haystack := solid(30, 30, color.Black)
	square := solid(8, 8, color.White)
	pasteAt(haystack, square, 10, 10)
	needle := solid(8, 8, color.Black)
	needleSquare := solid(8, 8, color.White)
	pasteAt(needle, needleSquare, 0, 0)

	f := NewContourFinder(newLogger(t))
	n := target.NewImage(needle, "n.png")
	n.SetSimilarity(0.3)

	matches, err := f.Find(context.Background(), n, haystack)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestTemplateFinderMultiMatchEmitsPerMatchHotmaps(t *testing.T) {
	haystack := solid(60, 60, color.RGBA{255, 0, 0, 255})
	needle := solid(6, 6, color.RGBA{0, 255, 0, 255})
	pasteAt(haystack, needle, 5, 5)
	pasteAt(haystack, needle, 25, 25)
	pasteAt(haystack, needle, 45, 45)

	dest := t.TempDir()
	log := imagelog.New(dest, imagelog.LevelDebug, 4)
	f := NewTemplateFinder(log)
	n := target.NewImage(needle, "needle.png")
	n.SetSimilarity(0.9)

	matches, err := f.Find(context.Background(), n, haystack)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	files, err := filepath.Glob(filepath.Join(dest, "*template-*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestContourFinderMatchesMultipleInstances(t *testing.T) {
	haystack := solid(40, 40, color.Black)
	square := solid(6, 6, color.White)
	pasteAt(haystack, square, 5, 5)
	pasteAt(haystack, square, 25, 20)

	needle := solid(6, 6, color.Black)
	needleSquare := solid(6, 6, color.White)
	pasteAt(needle, needleSquare, 0, 0)

	f := NewContourFinder(newLogger(t))
	n := target.NewImage(needle, "n.png")
	n.SetSimilarity(0.3)

	matches, err := f.Find(context.Background(), n, haystack)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(matches), 2)
}

func TestTextFinderEmitsStagedHotmaps(t *testing.T) {
	haystack := solid(40, 40, color.Black)
	region := solid(10, 6, color.White)
	pasteAt(haystack, region, 5, 5)

	dest := t.TempDir()
	log := imagelog.New(dest, imagelog.LevelDebug, 4)
	f := NewTextFinder(log, fakeOCREngine{text: "hi"})
	n := target.NewText("hi")
	n.SetSimilarity(0.5)

	matches, err := f.Find(context.Background(), n, haystack)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, stage := range []string{"1char", "2text", "3ocr-"} {
		files, err := filepath.Glob(filepath.Join(dest, "*"+stage+"*.png"))
		require.NoError(t, err)
		assert.NotEmpty(t, files, "expected a hotmap for stage %s", stage)
	}
}

func TestTextFinderErstatNotImplemented(t *testing.T) {
	f := NewTextFinder(newLogger(t), fakeOCREngine{text: "hi"})
	cat, _ := f.lc.Category("find")
	cat.SetParam("detectBackend", stringParam("erstat"))
	n := target.NewText("hi")
	_, err := f.Find(context.Background(), n, solid(20, 20, color.Black))
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestDrawActivationRendersProbabilityGrid(t *testing.T) {
	haystack := solid(4, 4, color.Black)
	probs := []float64{0, 1, 0.5, 0.25}

	img := drawActivation(haystack, probs, 2, 2)
	b := img.Bounds()
	assert.Equal(t, 4, b.Dx())
	assert.Equal(t, 4, b.Dy())

	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, grayFromUnit(0), gray.GrayAt(0, 0))
	assert.Equal(t, grayFromUnit(1), gray.GrayAt(2, 0))
	assert.Equal(t, grayFromUnit(0.5), gray.GrayAt(0, 2))
	assert.Equal(t, grayFromUnit(0.25), gray.GrayAt(2, 2))
}

func TestHybridFinderFallsThroughToSecondStep(t *testing.T) {
	haystack := solid(30, 30, color.RGBA{1, 1, 1, 255})
	needleImg := solid(4, 4, color.RGBA{99, 99, 99, 255})
	pasteAt(haystack, needleImg, 5, 5)

	log := newLogger(t)
	autopy := NewAutoPyFinder(log)

	missing := target.NewImage(solid(4, 4, color.RGBA{220, 30, 200, 255}), "missing.png")
	missing.SetSimilarity(0.99)
	present := target.NewImage(needleImg, "present.png")
	present.SetSimilarity(0.99)

	chain := target.NewChain([]target.Target{missing, present})
	hybrid := NewHybridFinder(log, autopy)

	matches, err := hybrid.Find(context.Background(), chain, haystack)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 5, matches[0].X)
}

func TestSnapOddAndDTMaskSize(t *testing.T) {
	assert.Equal(t, 3, snapOdd(2))
	assert.Equal(t, 3, snapOdd(3))
	assert.Equal(t, 5, snapOdd(4))

	assert.Equal(t, 0, snapDTMaskSize(1))
	assert.Equal(t, 3, snapDTMaskSize(4))
	assert.Equal(t, 5, snapDTMaskSize(5))
}

func TestEditSimilarityIdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, editSimilarity("hello", "hello"))
	assert.Less(t, editSimilarity("hello", "world"), 1.0)
}

func TestRegistryConstructsKnownBackends(t *testing.T) {
	r := NewRegistry()
	log := newLogger(t)
	for _, name := range []string{"autopy", "template", "contour", "feature", "cascade", "tempfeat"} {
		f, err := r.New(name, log)
		require.NoError(t, err)
		assert.NotNil(t, f.Settings())
	}
}

func TestRegistryUnknownBackend(t *testing.T) {
	r := NewRegistry()
	_, err := r.New("bogus", newLogger(t))
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestCascadeFinderRequiresClassifier(t *testing.T) {
	f := NewCascadeFinder(newLogger(t))
	pat := target.NewPattern("cascade.xml", target.PatternCascade)
	_, err := f.Find(context.Background(), pat, solid(20, 20, color.White))
	assert.ErrorIs(t, err, ErrUninitializedBackend)
}

func TestDeepFinderRequiresLoadedNetwork(t *testing.T) {
	f := NewDeepFinder(newLogger(t), "arch-unloaded-test")
	pat := target.NewPattern("net.csv", target.PatternDeepNet)
	_, err := f.Find(context.Background(), pat, solid(20, 20, color.White))
	assert.ErrorIs(t, err, ErrUninitializedBackend)
}

func TestTextFinderRequiresEngine(t *testing.T) {
	f := NewTextFinder(newLogger(t), nil)
	_, err := f.Find(context.Background(), target.NewText("hi"), solid(20, 20, color.White))
	assert.ErrorIs(t, err, ErrUninitializedBackend)
}
