package controller_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/controller"
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

func TestFakeControllerReportsBackingImageSize(t *testing.T) {
	c := controller.NewFakeController(solid(80, 40, color.White))
	assert.Equal(t, 80, c.Width())
	assert.Equal(t, 40, c.Height())
}

func TestFakeControllerCapturesWholeScreenWhenRegionNil(t *testing.T) {
	backing := solid(10, 10, color.White)
	c := controller.NewFakeController(backing)
	got, err := c.CaptureScreen(nil)
	require.NoError(t, err)
	assert.Equal(t, backing.Bounds(), got.Bounds())
}

func TestFakeControllerCropsToRegion(t *testing.T) {
	backing := solid(20, 20, color.White)
	c := controller.NewFakeController(backing)
	got, err := c.CaptureScreen(&controller.Rect{X: 2, Y: 3, W: 5, H: 6})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Bounds().Dx())
	assert.Equal(t, 6, got.Bounds().Dy())
}

func TestFakeControllerRejectsOutOfBoundsRegion(t *testing.T) {
	c := controller.NewFakeController(solid(10, 10, color.White))
	_, err := c.CaptureScreen(&controller.Rect{X: 5, Y: 5, W: 50, H: 50})
	assert.ErrorIs(t, err, controller.ErrOutOfBounds)
}

func TestFakeControllerRecordsInputCalls(t *testing.T) {
	c := controller.NewFakeController(solid(10, 10, color.White))
	require.NoError(t, c.MouseMove(1, 2))
	require.NoError(t, c.MouseClick(1, 2, controller.ButtonLeft, 1))
	require.NoError(t, c.MouseDown(1, 2, controller.ButtonRight))
	require.NoError(t, c.MouseUp(1, 2, controller.ButtonRight))
	require.NoError(t, c.MouseScroll(1, 2, 0, -3))
	require.NoError(t, c.KeysPress("ctrl", "c"))
	require.NoError(t, c.KeysToggle(true, "shift"))
	require.NoError(t, c.KeysType("hello", 0))

	calls := c.Calls()
	require.Len(t, calls, 8)
	methods := make([]string, len(calls))
	for i, call := range calls {
		methods[i] = call.Method
	}
	assert.Equal(t, []string{
		"MouseMove", "MouseClick", "MouseDown", "MouseUp",
		"MouseScroll", "KeysPress", "KeysToggle", "KeysType",
	}, methods)
}

func TestFakeControllerSetScreenReplacesBackingImage(t *testing.T) {
	c := controller.NewFakeController(solid(10, 10, color.White))
	c.SetScreen(solid(30, 30, color.Black))
	assert.Equal(t, 30, c.Width())
	assert.Equal(t, 30, c.Height())
}

func TestLoadFakeControllerDecodesPNGFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "haystack.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(16, 12, color.White)))
	require.NoError(t, f.Close())

	c, err := controller.LoadFakeController(path)
	require.NoError(t, err)
	assert.Equal(t, 16, c.Width())
	assert.Equal(t, 12, c.Height())
}

func TestLoadFakeControllerMissingFile(t *testing.T) {
	_, err := controller.LoadFakeController(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
