package calibrator_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/target"
)

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

func exactCase(t *testing.T) calibrator.Case {
	t.Helper()
	haystack := solid(40, 40, color.RGBA{10, 10, 10, 255})
	needleImg := solid(5, 5, color.RGBA{250, 0, 0, 255})
	pasteAt(haystack, needleImg, 12, 20)

	needle := target.NewImage(needleImg, "needle.png")
	needle.SetSimilarity(0.99)
	return calibrator.Case{
		Needle:   needle,
		Haystack: target.NewImage(haystack, "haystack.png"),
		Maximize: true,
	}
}

func TestRunDefaultPerfectMatchHasZeroError(t *testing.T) {
	c := exactCase(t)
	f := finder.NewAutoPyFinder(newLogger(t))
	errv := calibrator.RunDefault(context.Background(), []calibrator.Case{c}, f, calibrator.RunOptions{})
	assert.InDelta(t, 0, errv, 1e-9)
}

func TestRunDefaultEmptyCasesIsWorstError(t *testing.T) {
	f := finder.NewAutoPyFinder(newLogger(t))
	errv := calibrator.RunDefault(context.Background(), nil, f, calibrator.RunOptions{})
	assert.Equal(t, 1.0, errv)
}

func TestRunDefaultMinimizingCaseWithNoMatchIsZeroError(t *testing.T) {
	// A deliberately-absent needle with Maximize=false: no match means
	// similarity 0, and the minimizing formula (1-0=1) contributes a
	// perfect per-case score, so the aggregate error is 0.
	haystack := solid(30, 30, color.RGBA{1, 1, 1, 255})
	absent := target.NewImage(solid(4, 4, color.RGBA{240, 10, 200, 255}), "absent.png")
	absent.SetSimilarity(0.99)
	c := calibrator.Case{Needle: absent, Haystack: target.NewImage(haystack, "h.png"), Maximize: false}

	f := finder.NewAutoPyFinder(newLogger(t))
	errv := calibrator.RunDefault(context.Background(), []calibrator.Case{c}, f, calibrator.RunOptions{})
	assert.InDelta(t, 0, errv, 1e-9)
}

func TestRunPeakRewardsMatchAtExpectedLocation(t *testing.T) {
	c := exactCase(t)
	f := finder.NewAutoPyFinder(newLogger(t))
	opts := calibrator.RunOptions{PeakLocation: image.Pt(12, 20)}
	errv := calibrator.RunPeak(context.Background(), []calibrator.Case{c}, f, opts)
	assert.InDelta(t, 0, errv, 1e-9)
}

func TestCalibrateNeverIncreasesError(t *testing.T) {
	// A rectangle needle against a square haystack shape gives the contour
	// shape descriptor genuine room to differ; by construction Calibrate
	// only ever accepts a strictly-improving move, so error_after must not
	// exceed error_before regardless of whether it actually improves.
	haystack := solid(40, 40, color.Black)
	square := solid(10, 10, color.White)
	pasteAt(haystack, square, 15, 15)

	needle := solid(8, 6, color.Black)
	rect := solid(8, 6, color.White)
	pasteAt(needle, rect, 0, 0)

	needleTarget := target.NewImage(needle, "n.png")
	needleTarget.SetSimilarity(0.5)
	c := calibrator.Case{
		Needle:   needleTarget,
		Haystack: target.NewImage(haystack, "h.png"),
		Maximize: true,
	}

	f := finder.NewContourFinder(newLogger(t))
	cal := calibrator.New(c)

	errBefore := cal.Run(context.Background(), cal.Cases, f, calibrator.RunOptions{})
	require.NoError(t, calibrator.Calibrate(context.Background(), cal, f, 3, calibrator.RunOptions{}))
	errAfter := cal.Run(context.Background(), cal.Cases, f, calibrator.RunOptions{})

	assert.LessOrEqual(t, errAfter, errBefore)
}

func TestCalibrateRestoresSimilarityAfterExit(t *testing.T) {
	c := exactCase(t)
	f := finder.NewContourFinder(newLogger(t))
	cat, ok := f.Settings().Category("find")
	require.True(t, ok)
	before, ok := cat.Param("similarity")
	require.True(t, ok)
	beforeValue, beforeFixed := before.Value, before.Fixed

	cal := calibrator.New(c)
	require.NoError(t, calibrator.Calibrate(context.Background(), cal, f, 1, calibrator.RunOptions{}))

	after, ok := cat.Param("similarity")
	require.True(t, ok)
	assert.Equal(t, beforeValue, after.Value)
	assert.Equal(t, beforeFixed, after.Fixed)
}

func TestSearchNeverIncreasesError(t *testing.T) {
	haystack := solid(40, 40, color.Black)
	square := solid(10, 10, color.White)
	pasteAt(haystack, square, 15, 15)
	needle := solid(8, 6, color.Black)
	rect := solid(8, 6, color.White)
	pasteAt(needle, rect, 0, 0)
	needleTarget := target.NewImage(needle, "n.png")
	needleTarget.SetSimilarity(0.5)
	c := calibrator.Case{Needle: needleTarget, Haystack: target.NewImage(haystack, "h.png"), Maximize: true}

	f := finder.NewContourFinder(newLogger(t))
	cal := calibrator.New(c)

	errBefore := cal.Run(context.Background(), cal.Cases, f, calibrator.RunOptions{})
	require.NoError(t, calibrator.Search(context.Background(), cal, f, 2, false, true, 2, calibrator.RunOptions{}))
	errAfter := cal.Run(context.Background(), cal.Cases, f, calibrator.RunOptions{})

	assert.LessOrEqual(t, errAfter, errBefore)
}

func TestBenchmarkCoversEveryRegisteredBackendSortedBySimilarity(t *testing.T) {
	c := exactCase(t)
	cal := calibrator.New(c)
	registry := finder.NewRegistry()
	log := newLogger(t)

	results, err := calibrator.Benchmark(context.Background(), cal, registry, log, calibrator.BenchmarkOptions{})
	require.NoError(t, err)
	assert.Len(t, results, len(registry.Names()))

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestReportRendersOneRowPerResult(t *testing.T) {
	results := []calibrator.Result{{Method: "autopy", Similarity: 0.91}}
	out := calibrator.Report(results)
	assert.Contains(t, out, "autopy")
	assert.Contains(t, out, "0.9100")
}

func TestReportBoundedTruncatesUnderTightBudget(t *testing.T) {
	results := []calibrator.Result{
		{Method: "autopy", Similarity: 0.91},
		{Method: "contour", Similarity: 0.80},
		{Method: "template", Similarity: 0.70},
	}
	out, stats := calibrator.ReportBounded(results, nil, 10)
	assert.LessOrEqual(t, stats.IncludedSections, len(results))
	assert.Contains(t, out, "autopy")
}

func TestReportBoundedIncludesEverythingWithNoBudget(t *testing.T) {
	results := []calibrator.Result{
		{Method: "autopy", Similarity: 0.91},
		{Method: "contour", Similarity: 0.80},
	}
	out, stats := calibrator.ReportBounded(results, nil, 0)
	assert.Equal(t, 2, stats.IncludedSections)
	assert.Contains(t, out, "contour")
}
