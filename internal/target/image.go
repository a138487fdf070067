package target

import (
	"fmt"
	"image"
	_ "image/jpeg" // registers JPEG decoding for LoadImage
	_ "image/png"  // registers PNG decoding for LoadImage
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Image is the raster Target kind: an RGB image, its source filename, and
// an optional cache pin (spec.md §3).
type Image struct {
	Raster   image.Image
	Filename string
	// Pinned keeps this Image's cache entry alive even under an eventual
	// eviction policy; the current cache never evicts (spec.md §5: "cache
	// entries are immutable once inserted"), so Pinned is informational
	// today and exists for API parity with the original.
	Pinned bool

	settings Settings
	sim      float64
	dx, dy   int
}

// NewImage constructs an Image with default InheritSettings and similarity
// matching LocalConfig's "find.similarity" convenience alias (spec.md §3);
// callers typically overwrite it via SetSimilarity.
func NewImage(raster image.Image, filename string) *Image {
	return &Image{
		Raster:   raster,
		Filename: filename,
		settings: InheritSettings{},
		sim:      0.8,
	}
}

func (i *Image) Kind() Kind                 { return KindImage }
func (i *Image) MatchSettings() Settings    { return i.settings }
func (i *Image) Similarity() float64        { return i.sim }
func (i *Image) CenterOffset() (int, int)   { return i.dx, i.dy }
func (i *Image) SetSettings(s Settings)     { i.settings = s }
func (i *Image) SetSimilarity(sim float64)  { i.sim = sim }
func (i *Image) SetCenterOffset(dx, dy int) { i.dx, i.dy = dx, dy }

// imageCache is the process-wide, content-immutable cache of decoded images
// keyed by filename (spec.md §5 "Shared resources"). A singleflight.Group
// deduplicates concurrent decodes of the same filename -- the one shared-
// resource hazard spec.md §5 calls out for this type -- while the finder/
// calibrator call graph itself remains strictly sequential.
type imageCache struct {
	group   singleflight.Group
	entries sync.Map // filename -> image.Image
}

var globalImageCache = &imageCache{}

// LoadImage decodes path through the process-wide image cache. Concurrent
// calls for the same path share a single decode (golang.org/x/sync/
// singleflight); once inserted, an entry is never mutated or evicted except
// by ClearImageCache (test-only use).
func LoadImage(path string) (image.Image, error) {
	if v, ok := globalImageCache.entries.Load(path); ok {
		return v.(image.Image), nil
	}

	v, err, _ := globalImageCache.group.Do(path, func() (interface{}, error) {
		if v, ok := globalImageCache.entries.Load(path); ok {
			return v.(image.Image), nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("target: load image %s: %w", path, err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("target: decode image %s: %w", path, err)
		}
		globalImageCache.entries.Store(path, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// ClearImageCache empties the process-wide image cache. Intended for tests
// only; production callers should never need to evict an immutable cache.
func ClearImageCache() {
	globalImageCache.entries.Range(func(key, _ interface{}) bool {
		globalImageCache.entries.Delete(key)
		return true
	})
}
