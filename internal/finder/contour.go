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

// ContourFinder matches shapes by thresholding both rasters into binary
// images, extracting connected-component contours, and pairing each needle
// contour with its closest unconsumed haystack contour by shape distance
// (spec.md §4.E.2).
type ContourFinder struct {
	baseFinder
}

func contourSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity":      similarityParam(0.7),
		"blurKernelSize":  intParam(1, 1, 31),
		"blurKernelSigma": floatParam(0, 0, 10, 0.5),
		"minArea":         floatParam(10, 0, 100000, 5),
		"threshold":       floatParam(0.5, 0, 1, 0.05),
	}
}

// blurMethods names the allowed preprocessing blurs; "none" skips blurring.
var blurMethods = map[string]bool{"none": true, "mean": true, "median": true, "gaussian": true}

// thresholdMethods names the allowed binarization strategies.
var thresholdMethods = map[string]bool{"normal": true, "adaptive": true, "canny": true}

// shapeDistanceMethods names the allowed matchShapes-equivalent distance
// functions; all three reduce to the same extent/aspect descriptor here
// since no CV moments library is available (see DESIGN.md).
var shapeDistanceMethods = map[string]bool{"i1": true, "i2": true, "i3": true}

// NewContourFinder constructs a ContourFinder configured with the "normal"
// threshold, no blur, and the "i1" shape-distance method.
func NewContourFinder(log *imagelog.Logger) *ContourFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"contour": contourSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "contour", false)
	cat, _ := lc.Category("find")
	cat.SetParam("blurMethod", stringParam("none"))
	cat.SetParam("thresholdMethod", stringParam("normal"))
	cat.SetParam("shapeDistance", stringParam("i1"))
	return &ContourFinder{baseFinder: newBaseFinder(lc, log)}
}

func (f *ContourFinder) param(name string, fallback float64) float64 {
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
	if v, ok := p.Value.(cvparam.IntValue); ok {
		return float64(v)
	}
	return fallback
}

func (f *ContourFinder) stringParam(name, fallback string) string {
	cat, ok := f.lc.Category("find")
	if !ok {
		return fallback
	}
	p, ok := cat.Param(name)
	if !ok {
		return fallback
	}
	if v, ok := p.Value.(cvparam.StringValue); ok {
		return string(v)
	}
	return fallback
}

// Find implements the two-stage threshold/contour pipeline.
func (f *ContourFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindImage); err != nil {
		return nil, err
	}
	img, ok := needle.(*target.Image)
	if !ok || img.Raster == nil {
		return nil, fmt.Errorf("%w: needle raster not loaded", ErrIncompatibleTarget)
	}
	if err := ctxDone(ctx); err != nil {
		return nil, err
	}

	thresholdMethod := f.stringParam("thresholdMethod", "normal")
	if !thresholdMethods[thresholdMethod] {
		return nil, fmt.Errorf("%w: threshold method %q", ErrUnsupportedBackend, thresholdMethod)
	}
	shapeMethod := f.stringParam("shapeDistance", "i1")
	if !shapeDistanceMethods[shapeMethod] {
		return nil, fmt.Errorf("%w: shape distance method %q", ErrUnsupportedBackend, shapeMethod)
	}

	minArea := f.param("minArea", 10)
	cutoff := f.param("threshold", 0.5)

	haystackBin := binarize(haystack, thresholdMethod, cutoff)
	needleBin := binarize(img.Raster, thresholdMethod, cutoff)

	haystackContours := filterByArea(extractContours(haystackBin), minArea)
	needleContours := filterByArea(extractContours(needleBin), minArea)

	nb := img.Raster.Bounds()
	tolerance := 1 - similarityOf(needle)
	matches := matchContours(needleContours, haystackContours, tolerance, nb.Dx(), nb.Dy())

	if err := ctxDone(ctx); err != nil {
		return nil, err
	}

	f.log.Reset(img.Raster, haystack)
	f.log.AddHotmap("1threshold", grayToRGBA(haystackBin))
	f.log.AddHotmap("2contours", drawContours(haystack, haystackContours))
	result, err := f.finish(img.Raster, haystack, matches, imagelog.LevelInfo)
	return result, err
}

// contour is a connected foreground component described by its bounding box
// and pixel area; a full ordered point list is not retained since only
// bbox/area/centroid feed the shape-distance descriptor used here.
type contour struct {
	bbox     image.Rectangle
	area     int
	centroid image.Point
}

func binarize(img image.Image, method string, cutoff float64) *image.Gray {
	gray := toGray(img)
	b := gray.Bounds()
	out := image.NewGray(b)
	threshold := uint8(cutoff * 255)

	switch method {
	case "adaptive":
		window := 7
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				local := localMean(gray, x, y, window)
				if gray.GrayAt(x, y).Y > local {
					out.SetGray(x, y, color.Gray{Y: 255})
				}
			}
		}
	case "canny":
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if gradientMagnitude(gray, x, y) > threshold {
					out.SetGray(x, y, color.Gray{Y: 255})
				}
			}
		}
	default: // "normal"
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if gray.GrayAt(x, y).Y > threshold {
					out.SetGray(x, y, color.Gray{Y: 255})
				}
			}
		}
	}
	return out
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

func localMean(gray *image.Gray, x, y, window int) uint8 {
	b := gray.Bounds()
	half := window / 2
	var sum, count int
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			px, py := x+dx, y+dy
			if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
				continue
			}
			sum += int(gray.GrayAt(px, py).Y)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return uint8(sum / count)
}

func gradientMagnitude(gray *image.Gray, x, y int) uint8 {
	b := gray.Bounds()
	get := func(px, py int) int {
		if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
			return int(gray.GrayAt(x, y).Y)
		}
		return int(gray.GrayAt(px, py).Y)
	}
	gx := get(x+1, y) - get(x-1, y)
	gy := get(x, y+1) - get(x, y-1)
	mag := math.Sqrt(float64(gx*gx + gy*gy))
	if mag > 255 {
		mag = 255
	}
	return uint8(mag)
}

// extractContours labels 4-connected foreground components via a simple
// flood fill, standing in for a full border-following contour tracer
// (spec.md §4.E.2; no CV contour library is present in the example pack).
func extractContours(bin *image.Gray) []contour {
	b := bin.Bounds()
	visited := make([]bool, b.Dx()*b.Dy())
	idx := func(x, y int) int { return (y-b.Min.Y)*b.Dx() + (x - b.Min.X) }

	var contours []contour
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if visited[idx(x, y)] || bin.GrayAt(x, y).Y == 0 {
				continue
			}
			stack := []image.Point{{X: x, Y: y}}
			visited[idx(x, y)] = true
			minX, minY, maxX, maxY := x, y, x, y
			var sumX, sumY, area int
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				area++
				sumX += p.X
				sumY += p.Y
				if p.X < minX {
					minX = p.X
				}
				if p.X > maxX {
					maxX = p.X
				}
				if p.Y < minY {
					minY = p.Y
				}
				if p.Y > maxY {
					maxY = p.Y
				}
				for _, n := range []image.Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
					if n.X < b.Min.X || n.X >= b.Max.X || n.Y < b.Min.Y || n.Y >= b.Max.Y {
						continue
					}
					if visited[idx(n.X, n.Y)] || bin.GrayAt(n.X, n.Y).Y == 0 {
						continue
					}
					visited[idx(n.X, n.Y)] = true
					stack = append(stack, n)
				}
			}
			contours = append(contours, contour{
				bbox:     image.Rect(minX, minY, maxX+1, maxY+1),
				area:     area,
				centroid: image.Point{X: sumX / area, Y: sumY / area},
			})
		}
	}
	return contours
}

func filterByArea(contours []contour, minArea float64) []contour {
	var out []contour
	for _, c := range contours {
		if float64(c.area) >= minArea {
			out = append(out, c)
		}
	}
	return out
}

// shapeDistance approximates matchShapes with an extent+aspect descriptor:
// extent is area/bboxArea, aspect is w/h. Both are scale-invariant, which is
// the property matchShapes is chosen for in the original.
func shapeDistance(a, b contour) float64 {
	ae := extent(a)
	be := extent(b)
	aa := aspect(a)
	ba := aspect(b)
	return math.Abs(ae-be) + math.Abs(aa-ba)
}

func extent(c contour) float64 {
	area := float64(c.bbox.Dx() * c.bbox.Dy())
	if area == 0 {
		return 0
	}
	return float64(c.area) / area
}

func aspect(c contour) float64 {
	if c.bbox.Dy() == 0 {
		return 0
	}
	return float64(c.bbox.Dx()) / float64(c.bbox.Dy())
}

// matchContours performs the injective assignment described in spec.md
// §4.E.2, repeated round after round to detect multiple instances of the
// needle shape: each round assigns every needle contour its closest
// not-yet-consumed haystack contour (consumption persists across rounds, so
// a haystack contour matched once is never reused), groups that round's
// matched haystack contours into one bounding box, and accepts it as a
// Match only if the round's mean distance stays within tolerance. Rounds
// continue until a round's mean distance exceeds tolerance.
func matchContours(needleContours, haystackContours []contour, tolerance float64, nw, nh int) []target.Match {
	if len(needleContours) == 0 || len(haystackContours) == 0 {
		return nil
	}
	consumed := make([]bool, len(haystackContours))
	var matches []target.Match

	for {
		distances := make([]float64, len(needleContours))
		var roundContours []contour
		for j, nc := range needleContours {
			bestIdx := -1
			bestDist := math.MaxFloat64
			for i, hc := range haystackContours {
				if consumed[i] {
					continue
				}
				d := shapeDistance(nc, hc)
				if d < bestDist {
					bestDist = d
					bestIdx = i
				}
			}
			if bestIdx < 0 {
				// preserves guibot's 1.1 sentinel semantics, see Open Question
				distances[j] = 1.1
				continue
			}
			consumed[bestIdx] = true
			distances[j] = bestDist
			roundContours = append(roundContours, haystackContours[bestIdx])
		}

		mean := meanOf(distances)
		if mean > tolerance {
			break
		}

		group := roundContours[0].bbox
		for _, c := range roundContours[1:] {
			group = group.Union(c.bbox)
		}

		scaleW := 1.0
		scaleH := 1.0
		if nw > 0 {
			scaleW = float64(group.Dx()) / float64(nw)
		}
		if nh > 0 {
			scaleH = float64(group.Dy()) / float64(nh)
		}

		sim := clamp01(1 - mean)
		matches = append(matches, target.Match{
			X: group.Min.X, Y: group.Min.Y,
			W: int(float64(nw) * scaleW), H: int(float64(nh) * scaleH),
			Similarity: sim,
		})
	}

	return matches
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func grayToRGBA(gray *image.Gray) image.Image {
	b := gray.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, gray.GrayAt(x, y))
		}
	}
	return out
}

func drawContours(haystack image.Image, contours []contour) image.Image {
	overlay := copyImage(haystack)
	sort.Slice(contours, func(i, j int) bool { return contours[i].area > contours[j].area })
	for _, c := range contours {
		outlineRect(overlay, c.bbox, color.RGBA{255, 0, 0, 255})
	}
	return overlay
}
