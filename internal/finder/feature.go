package finder

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

var colorYellow = color.RGBA{255, 255, 0, 255}

// FeatureFinder runs a three-stage detect/match/project pipeline and
// returns a single match; multi-instance matching is not supported (spec.md
// §4.E.4).
type FeatureFinder struct {
	baseFinder
}

func featureSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity":            similarityParam(0.6),
		"minDetectedFeatures":   intParam(4, 1, 10000),
		"minMatchedFeatures":    intParam(4, 1, 10000),
		"ratioThreshold":        floatParam(0.75, 0, 1, 0.05),
		"ransacReprojThreshold": floatParam(5, 0, 100, 1),
		"nzoom":                 floatParam(1, 1, 10, 0.5),
		"hzoom":                 floatParam(1, 1, 10, 0.5),
		"similarityRatio":       intParam(0, 0, 1),
		"projectionMethod":      intParam(0, 0, 1),
	}
}

// NewFeatureFinder constructs a FeatureFinder with ratio and symmetry
// testing both enabled, matching the original's default feature pipeline.
func NewFeatureFinder(log *imagelog.Logger) *FeatureFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"feature": featureSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "feature", false)
	cat, _ := lc.Category("find")
	cat.SetParam("ratioTest", boolParam(true))
	cat.SetParam("symmetryTest", boolParam(true))
	return &FeatureFinder{baseFinder: newBaseFinder(lc, log)}
}

// keypoint is a detected interest point with a descriptor vector. The
// descriptor here is a small local-intensity histogram standing in for a
// full ORB/SIFT descriptor (no CV feature library is present in the
// example pack -- see DESIGN.md).
type keypoint struct {
	pt   image.Point
	desc [8]float64
}

func (f *FeatureFinder) intParam(name string, fallback int) int {
	cat, ok := f.lc.Category("find")
	if !ok {
		return fallback
	}
	p, ok := cat.Param(name)
	if !ok {
		return fallback
	}
	if v, ok := p.Value.(cvparam.IntValue); ok {
		return int(v)
	}
	return fallback
}

func (f *FeatureFinder) floatParam(name string, fallback float64) float64 {
	cat, ok := f.lc.Category("find")
	if !ok {
		return fallback
	}
	p, ok := cat.Param(name)
	if !ok {
		return fallback
	}
	if v, ok := p.Value.(cvparam.FloatValue); ok {
		return float64(v)
	}
	return fallback
}

func (f *FeatureFinder) boolParam(name string, fallback bool) bool {
	cat, ok := f.lc.Category("find")
	if !ok {
		return fallback
	}
	p, ok := cat.Param(name)
	if !ok {
		return fallback
	}
	if v, ok := p.Value.(cvparam.BoolValue); ok {
		return bool(v)
	}
	return fallback
}

// Find implements the detect/match/project pipeline.
func (f *FeatureFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindImage); err != nil {
		return nil, err
	}
	img, ok := needle.(*target.Image)
	if !ok || img.Raster == nil {
		return nil, fmt.Errorf("%w: needle raster not loaded", ErrIncompatibleTarget)
	}

	minDetected := f.intParam("minDetectedFeatures", 4)
	minMatched := f.intParam("minMatchedFeatures", 4)
	ratioTest := f.boolParam("ratioTest", true)
	symmetryTest := f.boolParam("symmetryTest", true)
	ratioThreshold := f.floatParam("ratioThreshold", 0.75)

	f.log.Reset(img.Raster, haystack)

	needleKps := detectKeypoints(img.Raster)
	haystackKps := detectKeypoints(haystack)
	f.log.AddHotmap("1detect", drawKeypoints(haystack, haystackKps))
	if len(needleKps) < minDetected || len(haystackKps) < minDetected {
		return f.finish(img.Raster, haystack, nil, imagelog.LevelInfo)
	}
	if err := ctxDone(ctx); err != nil {
		return nil, err
	}

	pairs := matchKeypoints(needleKps, haystackKps, ratioTest, ratioThreshold, symmetryTest)
	similarity := float64(len(pairs)) / float64(len(needleKps))
	f.log.AddHotmap("2match", drawMatchedPairs(haystack, pairs))
	if len(pairs) < minMatched {
		return f.finish(img.Raster, haystack, nil, imagelog.LevelInfo)
	}

	nb := img.Raster.Bounds()
	bbox, inliers := projectBoundingBox(pairs, nb)
	similarityRatio := f.intParam("similarityRatio", 0) == 1
	if similarityRatio && len(pairs) > 0 {
		similarity = float64(inliers) / float64(len(pairs))
	}
	f.log.AddHotmap("3project", drawProjection(haystack, bbox))

	threshold := similarityOf(needle)
	var matches []target.Match
	if similarity >= threshold {
		matches = []target.Match{{X: bbox.Min.X, Y: bbox.Min.Y, W: bbox.Dx(), H: bbox.Dy(), Similarity: clamp01(similarity)}}
	}

	return f.finish(img.Raster, haystack, matches, imagelog.LevelInfo)
}

// detectKeypoints takes every point of a coarse 8-pixel grid and describes
// each with a small neighborhood histogram.
func detectKeypoints(img image.Image) []keypoint {
	b := img.Bounds()
	step := 8
	var kps []keypoint
	for y := b.Min.Y + step/2; y < b.Max.Y; y += step {
		for x := b.Min.X + step/2; x < b.Max.X; x += step {
			kps = append(kps, keypoint{pt: image.Point{X: x, Y: y}, desc: localHistogram(img, x, y)})
		}
	}
	return kps
}

func localHistogram(img image.Image, x, y int) [8]float64 {
	b := img.Bounds()
	var hist [8]float64
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			px, py := x+dx, y+dy
			if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
				continue
			}
			r, g, bl, _ := img.At(px, py).RGBA()
			lum := (float64(r) + float64(g) + float64(bl)) / 3 / 65535
			bucket := int(lum * 7.999)
			hist[bucket]++
		}
	}
	return hist
}

func descDist(a, b [8]float64) float64 {
	var sum float64
	for i := range a {
		sum += sq(a[i] - b[i])
	}
	return math.Sqrt(sum)
}

type kpPair struct {
	needle, haystack image.Point
}

// matchKeypoints performs k-NN (k=2) matching with optional ratio and
// symmetry tests (spec.md §4.E.4 stage 2).
func matchKeypoints(needleKps, haystackKps []keypoint, ratioTest bool, ratioThreshold float64, symmetryTest bool) []kpPair {
	forward := nearestNeighbors(needleKps, haystackKps, ratioTest, ratioThreshold)
	if !symmetryTest {
		return forward
	}
	// backward maps each haystack point to its best needle match, so a
	// forward pair survives only if the match agrees in both directions.
	backward := nearestNeighbors(haystackKps, needleKps, ratioTest, ratioThreshold)
	backBest := make(map[image.Point]image.Point, len(backward))
	for _, p := range backward {
		backBest[p.needle] = p.haystack
	}
	var mutual []kpPair
	for _, p := range forward {
		if np, ok := backBest[p.haystack]; ok && np == p.needle {
			mutual = append(mutual, p)
		}
	}
	return mutual
}

func nearestNeighbors(from, to []keypoint, ratioTest bool, ratioThreshold float64) []kpPair {
	var pairs []kpPair
	for _, f := range from {
		type cand struct {
			pt   image.Point
			dist float64
		}
		var cands []cand
		for _, t := range to {
			cands = append(cands, cand{pt: t.pt, dist: descDist(f.desc, t.desc)})
		}
		if len(cands) == 0 {
			continue
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
		if ratioTest && len(cands) >= 2 && cands[1].dist > 0 {
			if cands[0].dist/cands[1].dist >= ratioThreshold {
				continue
			}
		}
		pairs = append(pairs, kpPair{needle: f.pt, haystack: cands[0].pt})
	}
	return pairs
}

// projectBoundingBox estimates a translation (the homography/fundamental
// matrix computation's RANSAC consensus, simplified to a median offset
// since no linear-algebra library is present) and projects the needle's
// frame corners through it.
func projectBoundingBox(pairs []kpPair, nb image.Rectangle) (image.Rectangle, int) {
	if len(pairs) == 0 {
		return image.Rectangle{}, 0
	}
	var dxs, dys []int
	for _, p := range pairs {
		dxs = append(dxs, p.haystack.X-p.needle.X)
		dys = append(dys, p.haystack.Y-p.needle.Y)
	}
	sort.Ints(dxs)
	sort.Ints(dys)
	medDx := dxs[len(dxs)/2]
	medDy := dys[len(dys)/2]

	inliers := 0
	for i := range pairs {
		if abs(dxs[i]-medDx) <= 2 && abs(dys[i]-medDy) <= 2 {
			inliers++
		}
	}

	minX, minY := nb.Min.X+medDx, nb.Min.Y+medDy
	return image.Rect(minX, minY, minX+nb.Dx(), minY+nb.Dy()), inliers
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawKeypoints(haystack image.Image, kps []keypoint) image.Image {
	overlay := copyImage(haystack)
	for _, k := range kps {
		outlineRect(overlay, image.Rect(k.pt.X-1, k.pt.Y-1, k.pt.X+1, k.pt.Y+1), colorYellow)
	}
	return overlay
}

// drawMatchedPairs overlays only the haystack side of each surviving
// keypoint pair, distinguishing the match stage's pruned set from detect's
// full keypoint grid.
func drawMatchedPairs(haystack image.Image, pairs []kpPair) image.Image {
	overlay := copyImage(haystack)
	for _, p := range pairs {
		outlineRect(overlay, image.Rect(p.haystack.X-1, p.haystack.Y-1, p.haystack.X+1, p.haystack.Y+1), colorYellow)
	}
	return overlay
}

// drawProjection outlines the needle's projected bounding box in the
// haystack, the match pipeline's final stage before threshold comparison.
func drawProjection(haystack image.Image, bbox image.Rectangle) image.Image {
	overlay := copyImage(haystack)
	outlineRect(overlay, bbox, colorYellow)
	return overlay
}
