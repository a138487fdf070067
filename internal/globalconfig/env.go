package globalconfig

import (
	"os"
	"strconv"
)

// Environment variable name constants for GUIBOT_ prefixed overrides.
const (
	EnvFindBackend             = "GUIBOT_FIND_BACKEND"
	EnvContourThresholdBackend = "GUIBOT_CONTOUR_THRESHOLD_BACKEND"
	EnvTemplateMatchBackend    = "GUIBOT_TEMPLATE_MATCH_BACKEND"
	EnvFeatureDetectBackend    = "GUIBOT_FEATURE_DETECT_BACKEND"
	EnvFeatureExtractBackend   = "GUIBOT_FEATURE_EXTRACT_BACKEND"
	EnvFeatureMatchBackend     = "GUIBOT_FEATURE_MATCH_BACKEND"
	EnvTextDetectBackend       = "GUIBOT_TEXT_DETECT_BACKEND"
	EnvTextOCRBackend          = "GUIBOT_TEXT_OCR_BACKEND"
	EnvHybridMatchBackend      = "GUIBOT_HYBRID_MATCH_BACKEND"
	EnvImageLoggingLevel       = "GUIBOT_IMAGE_LOGGING_LEVEL"
	EnvImageLoggingDestination = "GUIBOT_IMAGE_LOGGING_DESTINATION"
	EnvImageLoggingStepWidth   = "GUIBOT_IMAGE_LOGGING_STEP_WIDTH"
	EnvImageQuality            = "GUIBOT_IMAGE_QUALITY"
)

var envStringKeys = map[string]string{
	EnvFindBackend:             "find_backend",
	EnvContourThresholdBackend: "contour_threshold_backend",
	EnvTemplateMatchBackend:    "template_match_backend",
	EnvFeatureDetectBackend:    "feature_detect_backend",
	EnvFeatureExtractBackend:   "feature_extract_backend",
	EnvFeatureMatchBackend:     "feature_match_backend",
	EnvTextDetectBackend:       "text_detect_backend",
	EnvTextOCRBackend:          "text_ocr_backend",
	EnvHybridMatchBackend:      "hybrid_match_backend",
	EnvImageLoggingLevel:       "image_logging_level",
	EnvImageLoggingDestination: "image_logging_destination",
}

var envIntKeys = map[string]string{
	EnvImageLoggingStepWidth: "image_logging_step_width",
	EnvImageQuality:          "image_quality",
}

// buildEnvMap reads GUIBOT_* environment variables and returns a flat map
// of only the ones set. Invalid numeric values are silently skipped so a
// bad env var does not block the rest of the resolution pipeline.
func buildEnvMap() map[string]any {
	m := make(map[string]any)
	for env, key := range envStringKeys {
		if v := os.Getenv(env); v != "" {
			m[key] = v
		}
	}
	for env, key := range envIntKeys {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				m[key] = n
			}
		}
	}
	return m
}
