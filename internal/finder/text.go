package finder

import (
	"context"
	"fmt"
	"image"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// detectBackends names the allowed text-region detection strategies.
// "components" and "erstat" are recognized names but not implemented
// (spec.md §4.E.6): ERStat's two-stage class-specific extremal region
// filter over RGB/lightness/gradient channels is a materially different
// algorithm from Contours and is never silently aliased to it.
var detectBackends = map[string]bool{"erstat": true, "contours": true, "components": true}

// recognizeBackends names the allowed OCR recognition strategies.
// "beamsearch" is not implemented (spec.md §4.E.6).
var recognizeBackends = map[string]bool{"tesseract": true, "hmm": true, "beamsearch": true}

// OCREngine performs recognition on a single pre-processed region crop,
// returning the recognized string. Implementations must not write to
// stdout/stderr themselves; TextFinder wraps every call in an
// OutputSilencer.
type OCREngine interface {
	Recognize(region image.Image) (string, error)
}

// TextFinder detects candidate text regions, recognizes each with an OCR
// engine, and scores by normalized edit distance against the needle string
// (spec.md §4.E.6).
type TextFinder struct {
	baseFinder
	engine   OCREngine
	silencer OutputSilencer
}

func textSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity":       similarityParam(0.6),
		"minArea":          floatParam(20, 0, 100000, 5),
		"blurKernelSize":   intParam(1, 1, 31),
		"blockSize":        intParam(11, 3, 99),
		"dtMaskSize":       intParam(3, 0, 5),
		"horizontalSpacing": intParam(10, 0, 1000),
		"verticalVariance": intParam(5, 0, 1000),
		"minChars":         intParam(1, 1, 1000),
	}
}

// NewTextFinder constructs a TextFinder using the "contours" detector and
// "tesseract" recognizer by default, with the platform's OutputSilencer.
func NewTextFinder(log *imagelog.Logger, engine OCREngine) *TextFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"text": textSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "text", false)
	cat, _ := lc.Category("find")
	cat.SetParam("detectBackend", stringParam("contours"))
	cat.SetParam("recognizeBackend", stringParam("tesseract"))
	return &TextFinder{
		baseFinder: newBaseFinder(lc, log),
		engine:     engine,
		silencer:   NewOutputSilencer(),
	}
}

func (f *TextFinder) stringParam(name, fallback string) string {
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

func (f *TextFinder) intParam(name string, fallback int) int {
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

func (f *TextFinder) floatParam(name string, fallback float64) float64 {
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

// Find detects candidate regions, recognizes each, and keeps those whose
// edit-distance similarity meets the needle's threshold.
func (f *TextFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindText); err != nil {
		return nil, err
	}
	txt, ok := needle.(*target.Text)
	if !ok {
		return nil, fmt.Errorf("%w: needle is not text", ErrIncompatibleTarget)
	}

	detectBackend := f.stringParam("detectBackend", "contours")
	if !detectBackends[detectBackend] {
		return nil, fmt.Errorf("%w: detect backend %q", ErrUnsupportedBackend, detectBackend)
	}
	if detectBackend == "components" || detectBackend == "erstat" {
		return nil, ErrNotImplemented
	}
	recognizeBackend := f.stringParam("recognizeBackend", "tesseract")
	if !recognizeBackends[recognizeBackend] {
		return nil, fmt.Errorf("%w: recognize backend %q", ErrUnsupportedBackend, recognizeBackend)
	}
	if recognizeBackend == "beamsearch" {
		return nil, ErrNotImplemented
	}
	if f.engine == nil {
		return nil, fmt.Errorf("%w: no OCR engine loaded", ErrUninitializedBackend)
	}

	minArea := f.floatParam("minArea", 20)
	minChars := f.intParam("minChars", 1)
	hspace := f.intParam("horizontalSpacing", 10)
	vvariance := f.intParam("verticalVariance", 5)

	f.log.Reset(nil, haystack)

	bin := binarize(haystack, "normal", 0.5)
	f.log.AddHotmap("1char", bin)

	contours := filterByArea(extractContours(bin), minArea)
	var regions []image.Rectangle
	if len(contours) >= minChars {
		regions = groupCharacters(contours, hspace, vvariance, minChars)
	}
	f.log.AddHotmap("2text", drawRegions(haystack, regions))

	threshold := similarityOf(needle)
	var matches []target.Match
	for n, r := range regions {
		if err := ctxDone(ctx); err != nil {
			return nil, err
		}
		crop := cropImage(haystack, r)
		var recognized string
		err := f.silencer.Silence(func() error {
			var rerr error
			recognized, rerr = f.engine.Recognize(crop)
			return rerr
		})
		if err != nil {
			continue
		}
		sim := editSimilarity(txt.Value, recognized)
		f.log.AddHotmap(fmt.Sprintf("3ocr-%dtext-%.4f", n+1, sim), crop)
		if sim >= threshold {
			matches = append(matches, target.Match{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy(), Similarity: sim})
		}
	}

	sortMatchesDescending(matches)
	return f.finish(nil, haystack, matches, imagelog.LevelInfo)
}

// drawRegions outlines each grouped text region in the haystack, the
// "2text" stage hotmap showing what survived character grouping.
func drawRegions(haystack image.Image, regions []image.Rectangle) image.Image {
	overlay := copyImage(haystack)
	for _, r := range regions {
		outlineRect(overlay, r, colorYellow)
	}
	return overlay
}

// groupCharacters merges character contours into line regions: two
// contours join a group when horizontally within hspace and vertically
// aligned within vvariance.
func groupCharacters(contours []contour, hspace, vvariance, minChars int) []image.Rectangle {
	used := make([]bool, len(contours))
	var groups []image.Rectangle
	for i, c := range contours {
		if used[i] {
			continue
		}
		group := c.bbox
		members := 1
		used[i] = true
		changed := true
		for changed {
			changed = false
			for j, o := range contours {
				if used[j] {
					continue
				}
				if withinSpacing(group, o.bbox, hspace, vvariance) {
					group = group.Union(o.bbox)
					used[j] = true
					members++
					changed = true
				}
			}
		}
		if members >= minChars {
			groups = append(groups, group)
		}
	}
	return groups
}

func withinSpacing(a, b image.Rectangle, hspace, vvariance int) bool {
	horizGap := gapBetween(a.Min.X, a.Max.X, b.Min.X, b.Max.X)
	vertOverlap := abs(a.Min.Y-b.Min.Y) <= vvariance
	return horizGap <= hspace && vertOverlap
}

func gapBetween(aMin, aMax, bMin, bMax int) int {
	if bMin > aMax {
		return bMin - aMax
	}
	if aMin > bMax {
		return aMin - bMax
	}
	return 0
}

func cropImage(img image.Image, r image.Rectangle) image.Image {
	b := img.Bounds().Intersect(r)
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return out
}

// editSimilarity returns 1 - levenshtein(a,b)/max(len(a),len(b)), the
// Hamming-like string distance spec.md §4.E.6 specifies.
func editSimilarity(a, b string) float64 {
	denom := maxInt(len(a), len(b))
	if denom == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(denom)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func sortMatchesDescending(matches []target.Match) {
	for i := 1; i < len(matches); i++ {
		j := i
		for j > 0 && matches[j-1].Similarity < matches[j].Similarity {
			matches[j-1], matches[j] = matches[j], matches[j-1]
			j--
		}
	}
}

// snapOdd increments an even kernel/block size to the next odd value, the
// restricted-value invariant spec.md §4.E.6 requires for blur kernels and
// adaptive threshold block sizes.
func snapOdd(size int) int {
	if size%2 == 0 {
		return size + 1
	}
	return size
}

// snapDTMaskSize snaps to the nearest of {0, 3, 5}, the only distance-
// transform mask sizes the original recognizer accepts.
func snapDTMaskSize(size int) int {
	allowed := []int{0, 3, 5}
	best := allowed[0]
	bestDist := abs(size - allowed[0])
	for _, a := range allowed[1:] {
		if d := abs(size - a); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}
