package finder

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/google/uuid"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// AutoPyFinder performs pixel-exact subimage search with a tolerance of
// 1-similarity, supporting at most one match (spec.md §4.E.1).
type AutoPyFinder struct {
	baseFinder
}

func autopySchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity": similarityParam(0.8),
	}
}

// NewAutoPyFinder constructs an AutoPyFinder with its "find" category
// configured for the "autopy" backend.
func NewAutoPyFinder(log *imagelog.Logger) *AutoPyFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"autopy": autopySchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "autopy", false)
	return &AutoPyFinder{baseFinder: newBaseFinder(lc, log)}
}

// Find implements pixel-exact search. The original backend shelled out to a
// library that reads images from disk; this port mirrors that resource
// acquisition pattern by writing the haystack crop to a process-unique temp
// file (spec.md §5 "Resource acquisition pattern") instead of comparing
// in-memory buffers directly, so the on-disk codec round-trip (and its
// failure modes) is exercised the same way the original's was.
func (f *AutoPyFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindImage); err != nil {
		return nil, err
	}
	img, ok := needle.(*target.Image)
	if !ok {
		return nil, fmt.Errorf("%w: needle has no raster", ErrIncompatibleTarget)
	}
	if img.Raster == nil {
		return nil, fmt.Errorf("%w: needle raster not loaded", ErrIncompatibleTarget)
	}
	if err := ctxDone(ctx); err != nil {
		return nil, err
	}

	tmpPath, err := writeTempPNG(haystack)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFind, err)
	}
	defer os.Remove(tmpPath)

	decoded, err := readPNG(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFind, err)
	}

	tolerance := 1 - similarityOf(needle)
	matches := scanExact(img.Raster, decoded, tolerance)
	return f.finish(img.Raster, haystack, matches, imagelog.LevelInfo)
}

// writeTempPNG writes img to a process-unique temp file and returns its
// path. The caller must remove it.
func writeTempPNG(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "guibot-autopy-"+uuid.NewString()+"-*.png")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// scanExact slides needle over haystack and keeps the window with the
// smallest mean per-pixel channel difference within tolerance (in [0,1],
// where 0 requires byte-exact equality); on ties the first such window in
// row-major order wins. At most one match is returned.
func scanExact(needle, haystack image.Image, tolerance float64) []target.Match {
	nb, hb := needle.Bounds(), haystack.Bounds()
	nw, nh := nb.Dx(), nb.Dy()
	hw, hh := hb.Dx(), hb.Dy()
	if nw > hw || nh > hh || nw == 0 || nh == 0 {
		return nil
	}

	best := -1.0
	bestX, bestY := 0, 0
	found := false
	for y := 0; y+nh <= hh; y++ {
		for x := 0; x+nw <= hw; x++ {
			diff := meanDiff(needle, haystack, x, y)
			sim := 1 - diff
			if diff <= tolerance && sim > best {
				best = sim
				bestX, bestY = x, y
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return []target.Match{{X: bestX, Y: bestY, W: nw, H: nh, Similarity: best}}
}

// meanDiff returns the mean normalized per-channel absolute difference
// between needle and the haystack window at (ox, oy).
func meanDiff(needle, haystack image.Image, ox, oy int) float64 {
	nb := needle.Bounds()
	hb := haystack.Bounds()
	var total float64
	var count int
	for y := 0; y < nb.Dy(); y++ {
		for x := 0; x < nb.Dx(); x++ {
			nr, ng, nbl, _ := needle.At(nb.Min.X+x, nb.Min.Y+y).RGBA()
			hr, hg, hbl, _ := haystack.At(hb.Min.X+ox+x, hb.Min.Y+oy+y).RGBA()
			total += chanDiff(nr, hr) + chanDiff(ng, hg) + chanDiff(nbl, hbl)
			count += 3
		}
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func chanDiff(a, b uint32) float64 {
	const maxc = 65535.0
	d := float64(a) - float64(b)
	if d < 0 {
		d = -d
	}
	return d / maxc
}
