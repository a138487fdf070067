package finder

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// templateMethods names the allowed correlation methods (spec.md §4.E.3).
var templateMethods = map[string]bool{
	"ccoeff_normed":  true,
	"ccorr_normed":   true,
	"sqdiff_normed":  true,
}

// TemplateFinder matches by normalized cross-correlation, coefficient, or
// inverted squared-difference, repeatedly picking the global maximum and
// zeroing a needle-sized window around it until no acceptable peak remains
// (spec.md §4.E.3).
type TemplateFinder struct {
	baseFinder
}

func templateSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity": similarityParam(0.8),
		"nocolor":    boolParam(false),
	}
}

// NewTemplateFinder constructs a TemplateFinder configured for the
// "ccoeff_normed" method.
func NewTemplateFinder(log *imagelog.Logger) *TemplateFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"template": templateSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "template", false)
	cat, _ := lc.Category("find")
	cat.SetParam("method", stringParam("ccoeff_normed"))
	return &TemplateFinder{baseFinder: newBaseFinder(lc, log)}
}

func (f *TemplateFinder) stringParam(name, fallback string) string {
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

func (f *TemplateFinder) boolParam(name string, fallback bool) bool {
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

// Find implements the correlation-surface peak-picking algorithm.
func (f *TemplateFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindImage); err != nil {
		return nil, err
	}
	img, ok := needle.(*target.Image)
	if !ok || img.Raster == nil {
		return nil, fmt.Errorf("%w: needle raster not loaded", ErrIncompatibleTarget)
	}

	method := f.stringParam("method", "ccoeff_normed")
	if !templateMethods[method] {
		return nil, fmt.Errorf("%w: template method %q", ErrUnsupportedBackend, method)
	}
	nocolor := f.boolParam("nocolor", false)

	surface := correlationSurface(img.Raster, haystack, method, nocolor)
	nb := img.Raster.Bounds()
	nw, nh := nb.Dx(), nb.Dy()

	threshold := similarityOf(needle)
	singleBest := threshold == 0

	var matches []target.Match
	var snapshots []image.Image
	for {
		if err := ctxDone(ctx); err != nil {
			return nil, err
		}
		x, y, peak := surfacePeak(surface)
		if peak < threshold {
			break
		}
		matches = append(matches, target.Match{X: x, Y: y, W: nw, H: nh, Similarity: peak})
		snapshots = append(snapshots, surfaceToImage(surface))
		suppressAround(surface, x, y, nw, nh)
		if singleBest {
			break
		}
	}

	f.log.Reset(img.Raster, haystack)
	for i, m := range matches {
		f.log.AddHotmap(fmt.Sprintf("%dtemplate-%.4f", i+1, m.Similarity), snapshots[i])
	}
	return f.finish(img.Raster, haystack, matches, imagelog.LevelInfo)
}

// surf is a dense [h][w] correlation surface, already clamped to [0,1].
type surf struct {
	w, h int
	data []float64
}

func newSurf(w, h int) *surf { return &surf{w: w, h: h, data: make([]float64, w*h)} }
func (s *surf) at(x, y int) float64 {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		return -1
	}
	return s.data[y*s.w+x]
}
func (s *surf) set(x, y int, v float64) { s.data[y*s.w+x] = v }

// correlationSurface computes a per-window similarity surface. sqdiff_normed
// is inverted to maximum-is-best per spec.md §4.E.3 step 2; ccoeff_normed
// and ccorr_normed both reduce to a Pearson-style normalized correlation
// here since no CV matchTemplate primitive is available in the example
// pack (see DESIGN.md).
func correlationSurface(needle, haystack image.Image, method string, nocolor bool) *surf {
	nb := needle.Bounds()
	hb := haystack.Bounds()
	nw, nh := nb.Dx(), nb.Dy()
	hw, hh := hb.Dx(), hb.Dy()

	out := newSurf(hw, hh)
	if nw > hw || nh > hh || nw == 0 || nh == 0 {
		return out
	}

	for y := 0; y+nh <= hh; y++ {
		for x := 0; x+nw <= hw; x++ {
			var score float64
			switch method {
			case "sqdiff_normed":
				score = 1 - clamp01(normalizedSqDiff(needle, haystack, x, y, nocolor))
			default:
				score = clamp01(normalizedCorrelation(needle, haystack, x, y, nocolor))
			}
			out.set(x, y, score)
		}
	}
	return out
}

func sample(img image.Image, b image.Rectangle, x, y int, nocolor bool) (float64, float64, float64) {
	r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
	rf, gf, bf := float64(r), float64(g), float64(bl)
	if nocolor {
		lum := (rf + gf + bf) / 3
		return lum, lum, lum
	}
	return rf, gf, bf
}

func normalizedCorrelation(needle, haystack image.Image, ox, oy int, nocolor bool) float64 {
	nb := needle.Bounds()
	hb := haystack.Bounds()
	var dot, nnorm, hnorm float64
	for y := 0; y < nb.Dy(); y++ {
		for x := 0; x < nb.Dx(); x++ {
			nr, ng, nbl := sample(needle, nb, x, y, nocolor)
			hr, hg, hbl := sample(haystack, hb, ox+x, oy+y, nocolor)
			dot += nr*hr + ng*hg + nbl*hbl
			nnorm += nr*nr + ng*ng + nbl*nbl
			hnorm += hr*hr + hg*hg + hbl*hbl
		}
	}
	denom := sqrt(nnorm * hnorm)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func normalizedSqDiff(needle, haystack image.Image, ox, oy int, nocolor bool) float64 {
	nb := needle.Bounds()
	hb := haystack.Bounds()
	var sqdiff, nnorm, hnorm float64
	for y := 0; y < nb.Dy(); y++ {
		for x := 0; x < nb.Dx(); x++ {
			nr, ng, nbl := sample(needle, nb, x, y, nocolor)
			hr, hg, hbl := sample(haystack, hb, ox+x, oy+y, nocolor)
			sqdiff += sq(nr-hr) + sq(ng-hg) + sq(nbl-hbl)
			nnorm += nr*nr + ng*ng + nbl*nbl
			hnorm += hr*hr + hg*hg + hbl*hbl
		}
	}
	denom := sqrt(nnorm * hnorm)
	if denom == 0 {
		return 0
	}
	return sqdiff / denom
}

func sq(v float64) float64 { return v * v }

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	// Newton's method avoids importing math solely for Sqrt in this file;
	// kept local since template.go already has several small numeric helpers.
	z := v
	for i := 0; i < 32; i++ {
		z -= (z*z - v) / (2 * z)
	}
	return z
}

func surfacePeak(s *surf) (x, y int, peak float64) {
	peak = -1
	for yy := 0; yy < s.h; yy++ {
		for xx := 0; xx < s.w; xx++ {
			v := s.at(xx, yy)
			if v > peak {
				peak = v
				x, y = xx, yy
			}
		}
	}
	return x, y, peak
}

// suppressAround zeroes a needle-half-size rectangle around (x,y) to enforce
// non-maximum suppression between successive peaks (spec.md §4.E.3 step 4).
func suppressAround(s *surf, x, y, nw, nh int) {
	halfW, halfH := nw/2, nh/2
	for yy := y - halfH; yy <= y+halfH; yy++ {
		for xx := x - halfW; xx <= x+halfW; xx++ {
			if xx < 0 || xx >= s.w || yy < 0 || yy >= s.h {
				continue
			}
			s.set(xx, yy, -1)
		}
	}
}

func surfaceToImage(s *surf) image.Image {
	out := image.NewGray(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			v := s.at(x, y)
			if v < 0 {
				v = 0
			}
			out.SetGray(x, y, grayFromUnit(v))
		}
	}
	return out
}

func grayFromUnit(v float64) color.Gray {
	if v > 1 {
		v = 1
	}
	return color.Gray{Y: uint8(v * 255)}
}
