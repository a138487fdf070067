package finder

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/guibot-go/guibot/internal/cvparam"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/localconfig"
	"github.com/guibot-go/guibot/internal/target"
)

// networkCache keeps at most one loaded module per architecture identifier
// (spec.md §4.E.8, §5): loading an already-cached architecture closes the
// old module before replacing it. It is process-wide, shared by every
// DeepFinder instance, mirroring the original's class-level cache.
type networkCache struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	modules map[string]api.Module
}

var globalNetworkCache = &networkCache{modules: make(map[string]api.Module)}

// Load compiles and instantiates wasmBytes under architecture, replacing
// (and closing) any module already cached for that architecture.
func (c *networkCache) Load(ctx context.Context, architecture string, wasmBytes []byte) (api.Module, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runtime == nil {
		c.runtime = wazero.NewRuntime(ctx)
	}
	if old, ok := c.modules[architecture]; ok {
		_ = old.Close(ctx)
		delete(c.modules, architecture)
	}
	mod, err := c.runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("finder: instantiate network %q: %w", architecture, err)
	}
	c.modules[architecture] = mod
	return mod, nil
}

func (c *networkCache) Get(architecture string) (api.Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[architecture]
	return m, ok
}

// DeepFinder hosts a precompiled WASM convolutional detector exporting a
// forward(ptr, len) -> (ptr, len) ABI over linear memory (spec.md §4.E.8).
// There is no native ML framework binding in the example pack, so wazero is
// the domain-stack wiring for "deep learning object detector".
type DeepFinder struct {
	baseFinder
	architecture string
}

func deepSchema() map[string]*cvparam.CVParameter {
	return map[string]*cvparam.CVParameter{
		"similarity":     similarityParam(0.5),
		"iwidth":         intParam(64, 1, 4096),
		"iheight":        intParam(64, 1, 4096),
		"owidth":         intParam(8, 1, 1024),
		"oheight":        intParam(8, 1, 1024),
		"conv1Channels":  intParam(16, 1, 1024),
		"conv1Kernel":    intParam(3, 1, 31),
		"conv2Channels":  intParam(32, 1, 1024),
		"conv2Kernel":    intParam(3, 1, 31),
		"fcSize":         intParam(128, 1, 65536),
		"learningRate":   floatParam(0.001, 0, 1, 0.0005),
		"sgdMomentum":    floatParam(0.9, 0, 1, 0.05),
		"batchSize":      intParam(32, 1, 4096),
		"logInterval":    intParam(10, 1, 100000),
		"useCuda":        boolParam(false),
	}
}

// NewDeepFinder constructs a DeepFinder for the named network architecture.
// The network itself must be loaded separately via LoadNetwork before Find
// is called.
func NewDeepFinder(log *imagelog.Logger, architecture string) *DeepFinder {
	lc := localconfig.New()
	lc.AddCategory("find", map[string]localconfig.BackendSchema{
		"deep": deepSchema,
	}, nil, "")
	_ = lc.ConfigureBackend("find", "deep", false)
	return &DeepFinder{baseFinder: newBaseFinder(lc, log), architecture: architecture}
}

// LoadNetwork compiles and caches wasmBytes under this finder's
// architecture identifier.
func (f *DeepFinder) LoadNetwork(ctx context.Context, wasmBytes []byte) error {
	_, err := globalNetworkCache.Load(ctx, f.architecture, wasmBytes)
	return err
}

func (f *DeepFinder) intParam(name string, fallback int) int {
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

// Find center-pads haystack to the network's input size, runs one forward
// pass, softmaxes the owidth*oheight+1 outputs, and emits one Match per
// cell whose object probability meets the needle's threshold.
func (f *DeepFinder) Find(ctx context.Context, needle target.Target, haystack image.Image) ([]target.Match, error) {
	if err := requireKind(needle, target.KindPattern); err != nil {
		return nil, err
	}
	pat, ok := needle.(*target.Pattern)
	if !ok || pat.Class != target.PatternDeepNet {
		return nil, fmt.Errorf("%w: pattern is not a network", ErrIncompatibleTargetFile)
	}
	mod, ok := globalNetworkCache.Get(f.architecture)
	if !ok {
		return nil, fmt.Errorf("%w: network %q not loaded", ErrUninitializedBackend, f.architecture)
	}

	iwidth := f.intParam("iwidth", 64)
	iheight := f.intParam("iheight", 64)
	owidth := f.intParam("owidth", 8)
	oheight := f.intParam("oheight", 8)

	input := centerPadGray(haystack, iwidth, iheight)

	forward := mod.ExportedFunction("forward")
	alloc := mod.ExportedFunction("alloc")
	if forward == nil || alloc == nil {
		return nil, fmt.Errorf("%w: network missing alloc/forward exports", ErrUninitializedBackend)
	}

	allocRes, err := alloc.Call(ctx, uint64(len(input)))
	if err != nil || len(allocRes) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrFind, err)
	}
	ptr := uint32(allocRes[0])
	if !mod.Memory().Write(ptr, input) {
		return nil, fmt.Errorf("%w: writing input tensor out of bounds", ErrFind)
	}

	fwdRes, err := forward.Call(ctx, uint64(ptr), uint64(len(input)))
	if err != nil || len(fwdRes) < 2 {
		return nil, fmt.Errorf("%w: %v", ErrFind, err)
	}
	outPtr, outLen := uint32(fwdRes[0]), uint32(fwdRes[1])
	raw, ok := mod.Memory().Read(outPtr, outLen)
	if !ok {
		return nil, fmt.Errorf("%w: reading output tensor out of bounds", ErrFind)
	}
	logits := bytesToFloat32(raw)

	cells := owidth * oheight
	if len(logits) != cells+1 {
		return nil, fmt.Errorf("%w: unexpected output length %d, want %d", ErrFind, len(logits), cells+1)
	}
	probs := softmax(logits)

	hb := haystack.Bounds()
	scaleW := float64(hb.Dx()) / float64(owidth)
	scaleH := float64(hb.Dy()) / float64(oheight)
	threshold := similarityOf(needle)

	f.log.Reset(nil, haystack)
	f.log.AddHotmap("1activity", drawActivation(haystack, probs[:cells], owidth, oheight))

	var matches []target.Match
	for i := 0; i < cells; i++ {
		if probs[i] < threshold {
			continue
		}
		cx := i % owidth
		cy := i / owidth
		matches = append(matches, target.Match{
			X: int(float64(cx) * scaleW), Y: int(float64(cy) * scaleH),
			W: int(scaleW), H: int(scaleH),
			Similarity: probs[i],
		})
	}
	sortMatchesDescending(matches)

	return f.finish(nil, haystack, matches, imagelog.LevelInfo)
}

// Train is a training hook, not part of the matching contract; it remains
// a stub since model serialization is out of scope here (spec.md §4.E.8).
func (f *DeepFinder) Train(ctx context.Context, epochs int, samples, targets [][]float32, out string) error {
	return ErrNotImplemented
}

// Test is an evaluation hook, not part of the matching contract.
func (f *DeepFinder) Test(ctx context.Context, samples, targets [][]float32) (float64, error) {
	return 0, ErrNotImplemented
}

// drawActivation renders the per-cell object-probability grid as a
// haystack-sized grayscale map, the "1activity" stage hotmap showing the
// network's activation before threshold comparison.
func drawActivation(haystack image.Image, probs []float64, owidth, oheight int) image.Image {
	hb := haystack.Bounds()
	out := image.NewGray(image.Rect(0, 0, hb.Dx(), hb.Dy()))
	scaleW := float64(hb.Dx()) / float64(owidth)
	scaleH := float64(hb.Dy()) / float64(oheight)
	for cy := 0; cy < oheight; cy++ {
		for cx := 0; cx < owidth; cx++ {
			v := grayFromUnit(probs[cy*owidth+cx])
			x0, x1 := int(float64(cx)*scaleW), int(float64(cx+1)*scaleW)
			y0, y1 := int(float64(cy)*scaleH), int(float64(cy+1)*scaleH)
			for y := y0; y < y1 && y < out.Bounds().Dy(); y++ {
				for x := x0; x < x1 && x < out.Bounds().Dx(); x++ {
					out.SetGray(x, y, v)
				}
			}
		}
	}
	return out
}

func centerPadGray(img image.Image, w, h int) []byte {
	b := img.Bounds()
	out := make([]byte, w*h)
	offX := (w - b.Dx()) / 2
	offY := (h - b.Dy()) / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := x-b.Min.X+offX, y-b.Min.Y+offY
			if dx < 0 || dx >= w || dy < 0 || dy >= h {
				continue
			}
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (r + g + bl) / 3
			out[dy*w+dx] = byte(lum >> 8)
		}
	}
	return out
}

func bytesToFloat32(raw []byte) []float64 {
	n := len(raw) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		out[i] = float64(math.Float32frombits(bits))
	}
	return out
}

func softmax(logits []float64) []float64 {
	maxV := logits[0]
	for _, v := range logits {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	exps := make([]float64, len(logits))
	for i, v := range logits {
		e := math.Exp(v - maxV)
		exps[i] = e
		sum += e
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}
