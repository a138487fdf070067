// Package imagelog implements ImageLogger: step-numbered artifact dumping
// with accumulation semantics across nested finders (spec.md §3, §4.C).
//
// Per spec.md §5, this state is process-wide and intentionally NOT
// lock-protected in the original; a Logger is modeled as a single struct
// threaded through finder constructors rather than class attributes
// (spec.md §9), but callers must still serialize access to any one Logger
// instance -- the calibrator's strictly sequential call graph guarantees
// this throughout the rest of this module.
package imagelog

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/guibot-go/guibot/internal/target"
)

// Level mirrors the original's logging-level integers (DEBUG=10 ..
// CRITICAL=50) so numeric comparisons against a configured threshold behave
// identically.
type Level int

const (
	LevelDebug    Level = 10
	LevelInfo     Level = 20
	LevelWarning  Level = 30
	LevelError    Level = 40
	LevelCritical Level = 50
)

type hotmapEntry struct {
	name string
	img  image.Image
}

// Logger is the single mutable ImageLogger instance threaded through a
// matching session. It is not safe for concurrent use -- see the package
// doc comment.
type Logger struct {
	Level       Level
	Destination string
	StepWidth   int
	Quality     int // PNG compression level, image_quality in [0,9]

	step       int
	accumDepth int

	needle, haystack image.Image
	hotmaps          []hotmapEntry
	similarities     []float64
	locations        []target.Match
}

// New constructs a Logger with the given destination directory, threshold
// level, and step-number zero-padding width.
func New(destination string, level Level, stepWidth int) *Logger {
	if stepWidth <= 0 {
		stepWidth = 4
	}
	return &Logger{
		Level:       level,
		Destination: destination,
		StepWidth:   stepWidth,
		Quality:     3,
		step:        1,
	}
}

// Reset sets the needle/haystack for an in-progress find() call. It does
// NOT clear the accumulated hotmaps/similarities/locations lists -- those
// persist across nested finder calls performed under Accumulate so an outer
// finder can group several inner stages into one logical flushed step
// (spec.md §4.E.7, §4.E.9, §4.G). They are only cleared by a successful
// flush in Log.
func (l *Logger) Reset(needle, haystack image.Image) {
	l.needle = needle
	l.haystack = haystack
}

// AddHotmap appends a named diagnostic image. Finders are responsible for
// supplying names in the fixed per-finder order documented in spec.md §4.C
// (e.g. ContourFinder passes "1threshold" then "2contours"); Logger itself
// only sequences, numbers, and flushes them.
func (l *Logger) AddHotmap(name string, img image.Image) {
	l.hotmaps = append(l.hotmaps, hotmapEntry{name: name, img: img})
}

// AddMatch records one accepted Match's similarity and location, keeping
// Similarities and Locations parallel to each other (spec.md §3).
func (l *Logger) AddMatch(m target.Match) {
	l.similarities = append(l.similarities, m.Similarity)
	l.locations = append(l.locations, m)
}

// Similarities returns the similarities recorded so far in this session.
func (l *Logger) Similarities() []float64 { return append([]float64(nil), l.similarities...) }

// Locations returns the locations recorded so far in this session.
func (l *Logger) Locations() []target.Match { return append([]target.Match(nil), l.locations...) }

// Accumulating reports whether emission is currently suspended.
func (l *Logger) Accumulating() bool { return l.accumDepth > 0 }

// Accumulate runs fn with emission suspended: nested Log calls performed by
// fn (directly, or by a sub-finder it invokes) defer their artifacts into
// the shared hotmaps/similarities/locations lists instead of flushing, so
// that the enclosing finder's own Log call, once fn returns, flushes
// everything as a single logical step (spec.md §4.E.7, §4.E.9, §4.G
// "During enumeration the image logger is in accumulation mode").
//
// Accumulate nests: an inner Accumulate call does not prematurely resume
// emission while an outer one is still active.
func (l *Logger) Accumulate(fn func() error) error {
	l.accumDepth++
	defer func() { l.accumDepth-- }()
	return fn()
}

// Log is called once per find(). If level is below the configured
// threshold, it returns immediately with no dumps. If accumulation is
// active, emission is deferred to the enclosing finder. Otherwise every
// recorded hotmap (plus the needle/haystack dumps) is flushed to disk,
// the session state is cleared, and the step counter is incremented --
// exactly once per flush, never on a skipped or deferred call (spec.md §8:
// "always increments step by exactly 1 when logging is not suspended").
func (l *Logger) Log(level Level) error {
	if level < l.Level {
		return nil
	}
	if l.Accumulating() {
		return nil
	}
	if len(l.hotmaps) == 0 {
		return ErrMissingHotmap
	}

	defer l.clear()

	if l.step == 1 {
		if err := os.RemoveAll(l.Destination); err != nil {
			return fmt.Errorf("imagelog: wipe destination: %w", err)
		}
	}
	if err := os.MkdirAll(l.Destination, 0o755); err != nil {
		return fmt.Errorf("imagelog: create destination: %w", err)
	}

	prefix := fmt.Sprintf("imglog%0*d", l.StepWidth, l.step)

	if l.needle != nil {
		if err := l.dump(prefix+"-1needle", l.needle); err != nil {
			return err
		}
	}
	if l.haystack != nil {
		if err := l.dump(prefix+"-2haystack", l.haystack); err != nil {
			return err
		}
	}

	var lastHash uint64
	haveLast := false
	for _, h := range l.hotmaps {
		hash := contentHash(h.img)
		if haveLast && hash == lastHash {
			// Skip a byte-for-byte duplicate of the immediately preceding
			// hotmap (common when a finder emits an unchanged haystack crop
			// across chain steps); content-addressed via xxh3.
			continue
		}
		lastHash = hash
		haveLast = true
		if err := l.dump(prefix+"-"+h.name, h.img); err != nil {
			return err
		}
	}

	l.step++
	return nil
}

func (l *Logger) dump(name string, img image.Image) error {
	path := filepath.Join(l.Destination, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagelog: create %s: %w", path, err)
	}
	defer f.Close()

	enc := &png.Encoder{CompressionLevel: qualityToCompression(l.Quality)}
	if err := enc.Encode(f, img); err != nil {
		return fmt.Errorf("imagelog: encode %s: %w", path, err)
	}
	return nil
}

// qualityToCompression maps image_quality in [0,9] (0 = fastest/largest,
// 9 = slowest/smallest, matching the original's quality scale) onto Go's
// three-level png.CompressionLevel.
func qualityToCompression(quality int) png.CompressionLevel {
	switch {
	case quality <= 2:
		return png.NoCompression
	case quality <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// Clear discards any recorded hotmaps/similarities/locations without
// flushing them to disk. The calibrator calls this after every probe run
// performed under Accumulate, mirroring the original's explicit
// finder.imglog.clear() call after each calibration attempt so memory does
// not grow unbounded across hundreds of runs.
func (l *Logger) Clear() { l.clear() }

// clear resets per-invocation state after a successful flush.
func (l *Logger) clear() {
	l.needle = nil
	l.haystack = nil
	l.hotmaps = nil
	l.similarities = nil
	l.locations = nil
}

// DumpOnError writes last_finderror_haystack.png / last_finderror_needle.png
// to the logging destination, used by the (out-of-scope) enclosing Region
// when save_needle_on_error is set and a Find times out (spec.md §7).
func (l *Logger) DumpOnError(haystack, needle image.Image) error {
	if err := os.MkdirAll(l.Destination, 0o755); err != nil {
		return fmt.Errorf("imagelog: create destination: %w", err)
	}
	if haystack != nil {
		if err := l.dump("last_finderror_haystack", haystack); err != nil {
			return err
		}
	}
	if needle != nil {
		if err := l.dump("last_finderror_needle", needle); err != nil {
			return err
		}
	}
	return nil
}

func contentHash(img image.Image) uint64 {
	b := img.Bounds()
	h := xxh3.New()
	buf := make([]byte, 0, b.Dx()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		buf = buf[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			buf = append(buf, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
