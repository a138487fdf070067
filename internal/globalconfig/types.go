// Package globalconfig implements process-wide settings (spec.md §6, §9):
// which backend each Finder category defaults to, image-logging behavior,
// and the upper-layer delay/behavior flags carried through for API parity.
// Resolution is layered the same way across built-in defaults, a global
// config file, a repo-local config file, environment variables, and CLI
// flags, adapted to this domain's keys.
package globalconfig

// Config holds every process-wide setting spec.md §6 names. It is threaded
// through constructors explicitly rather than read from package-level
// state, so a single process can hold more than one Config (e.g. a
// TemporaryConfig scope nested inside a test).
type Config struct {
	// FindBackend selects the default Finder a bare Image/Pattern/Text
	// construction uses when no match file overrides it.
	FindBackend string

	// ContourThresholdBackend selects ContourFinder's threshold method
	// ("adaptive" or "canny").
	ContourThresholdBackend string
	// TemplateMatchBackend selects TemplateFinder's OpenCV comparison method.
	TemplateMatchBackend string
	// FeatureDetectBackend selects FeatureFinder's keypoint detector.
	FeatureDetectBackend string
	// FeatureExtractBackend selects FeatureFinder's descriptor extractor.
	FeatureExtractBackend string
	// FeatureMatchBackend selects FeatureFinder's descriptor matcher.
	FeatureMatchBackend string
	// TextDetectBackend selects TextFinder's region-detection method.
	TextDetectBackend string
	// TextOCRBackend selects TextFinder's OCR engine.
	TextOCRBackend string
	// HybridMatchBackend selects HybridFinder's fallback-chain strategy.
	HybridMatchBackend string

	// ImageLoggingLevel gates how much per-attempt artifact detail
	// imagelog.Logger records ("off", "info", "debug").
	ImageLoggingLevel string
	// ImageLoggingDestination is the root directory imagelog.Logger writes
	// dumped hotmaps and step images under.
	ImageLoggingDestination string
	// ImageLoggingStepWidth pads step-sequence filenames to this many digits.
	ImageLoggingStepWidth int
	// ImageQuality is the PNG/JPEG compression quality imagelog.Logger
	// passes to its encoder.
	ImageQuality int

	// The following are carried through, unused by the matching core
	// itself, for API parity with the upper layer this port has no
	// equivalent of (region polling / click-and-wait orchestration).
	RescanSpeedOnExpected   float64
	RescanSpeedOnDeviation  float64
	WaitForAnimations       bool
	SmoothMouseDrag         bool
	ScreenAutoScalingFactor float64
	DeltaXWarped            float64
	DeltaYWarped            float64
}

// Default returns the built-in fallback Config: the lowest-precedence
// layer of Resolve's 5-layer pipeline.
func Default() *Config {
	return &Config{
		FindBackend: "autopy",

		ContourThresholdBackend: "adaptive",
		TemplateMatchBackend:    "ccoeff_normed",
		FeatureDetectBackend:    "orb",
		FeatureExtractBackend:   "orb",
		FeatureMatchBackend:     "brute_force",
		TextDetectBackend:       "east",
		TextOCRBackend:          "tesseract",
		HybridMatchBackend:      "first",

		ImageLoggingLevel:       "info",
		ImageLoggingDestination: "imglog",
		ImageLoggingStepWidth:   3,
		ImageQuality:            90,

		RescanSpeedOnExpected:   0.2,
		RescanSpeedOnDeviation:  0.2,
		WaitForAnimations:       false,
		SmoothMouseDrag:         true,
		ScreenAutoScalingFactor: 1.0,
		DeltaXWarped:            0,
		DeltaYWarped:            0,
	}
}

// fieldKeys is the flat key every layer (defaults/file/env/flag) may set.
// Order matches the struct for readability only; Resolve doesn't depend on it.
var fieldKeys = []string{
	"find_backend",
	"contour_threshold_backend",
	"template_match_backend",
	"feature_detect_backend",
	"feature_extract_backend",
	"feature_match_backend",
	"text_detect_backend",
	"text_ocr_backend",
	"hybrid_match_backend",
	"image_logging_level",
	"image_logging_destination",
	"image_logging_step_width",
	"image_quality",
	"rescan_speed_on_expected",
	"rescan_speed_on_deviation",
	"wait_for_animations",
	"smooth_mouse_drag",
	"screen_auto_scaling_factor",
	"delta_x_warped",
	"delta_y_warped",
}

func toFlatMap(c *Config) map[string]any {
	return map[string]any{
		"find_backend": c.FindBackend,

		"contour_threshold_backend": c.ContourThresholdBackend,
		"template_match_backend":    c.TemplateMatchBackend,
		"feature_detect_backend":    c.FeatureDetectBackend,
		"feature_extract_backend":   c.FeatureExtractBackend,
		"feature_match_backend":     c.FeatureMatchBackend,
		"text_detect_backend":       c.TextDetectBackend,
		"text_ocr_backend":          c.TextOCRBackend,
		"hybrid_match_backend":      c.HybridMatchBackend,

		"image_logging_level":       c.ImageLoggingLevel,
		"image_logging_destination": c.ImageLoggingDestination,
		"image_logging_step_width":  c.ImageLoggingStepWidth,
		"image_quality":             c.ImageQuality,

		"rescan_speed_on_expected":   c.RescanSpeedOnExpected,
		"rescan_speed_on_deviation":  c.RescanSpeedOnDeviation,
		"wait_for_animations":        c.WaitForAnimations,
		"smooth_mouse_drag":          c.SmoothMouseDrag,
		"screen_auto_scaling_factor": c.ScreenAutoScalingFactor,
		"delta_x_warped":             c.DeltaXWarped,
		"delta_y_warped":             c.DeltaYWarped,
	}
}
