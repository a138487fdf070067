package globalconfig

// TemporaryConfig applies overrides (keyed by the same flat field names
// Resolve uses) to cfg in place and returns a restore closure that puts
// every touched field back to its value at call time. Intended use is
//
//	restore := globalconfig.TemporaryConfig(cfg, map[string]any{"find_backend": "template"})
//	defer restore()
//
// mirroring a scoped override that reverts automatically when the calling
// function returns, regardless of how it returns.
func TemporaryConfig(cfg *Config, overrides map[string]any) func() {
	before := toFlatMap(cfg)
	saved := make(map[string]any, len(overrides))
	for key := range overrides {
		saved[key] = before[key]
	}

	applyFlatMap(cfg, overrides)

	return func() {
		applyFlatMap(cfg, saved)
	}
}

// applyFlatMap writes each recognized key in m back into cfg's fields.
// Unrecognized keys are ignored.
func applyFlatMap(cfg *Config, m map[string]any) {
	for key, v := range m {
		switch key {
		case "find_backend":
			cfg.FindBackend, _ = v.(string)
		case "contour_threshold_backend":
			cfg.ContourThresholdBackend, _ = v.(string)
		case "template_match_backend":
			cfg.TemplateMatchBackend, _ = v.(string)
		case "feature_detect_backend":
			cfg.FeatureDetectBackend, _ = v.(string)
		case "feature_extract_backend":
			cfg.FeatureExtractBackend, _ = v.(string)
		case "feature_match_backend":
			cfg.FeatureMatchBackend, _ = v.(string)
		case "text_detect_backend":
			cfg.TextDetectBackend, _ = v.(string)
		case "text_ocr_backend":
			cfg.TextOCRBackend, _ = v.(string)
		case "hybrid_match_backend":
			cfg.HybridMatchBackend, _ = v.(string)
		case "image_logging_level":
			cfg.ImageLoggingLevel, _ = v.(string)
		case "image_logging_destination":
			cfg.ImageLoggingDestination, _ = v.(string)
		case "image_logging_step_width":
			cfg.ImageLoggingStepWidth, _ = v.(int)
		case "image_quality":
			cfg.ImageQuality, _ = v.(int)
		case "rescan_speed_on_expected":
			cfg.RescanSpeedOnExpected, _ = v.(float64)
		case "rescan_speed_on_deviation":
			cfg.RescanSpeedOnDeviation, _ = v.(float64)
		case "wait_for_animations":
			cfg.WaitForAnimations, _ = v.(bool)
		case "smooth_mouse_drag":
			cfg.SmoothMouseDrag, _ = v.(bool)
		case "screen_auto_scaling_factor":
			cfg.ScreenAutoScalingFactor, _ = v.(float64)
		case "delta_x_warped":
			cfg.DeltaXWarped, _ = v.(float64)
		case "delta_y_warped":
			cfg.DeltaYWarped, _ = v.(float64)
		}
	}
}
