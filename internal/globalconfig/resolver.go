package globalconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	koanf "github.com/knadh/koanf/v2"
	"github.com/knadh/koanf/providers/confmap"
)

// ResolveOptions configures the multi-source resolution pipeline.
type ResolveOptions struct {
	// TargetDir is the directory to search for guibot.toml. Defaults to "."
	// if empty.
	TargetDir string
	// GlobalConfigPath overrides the default ~/.config/guibot/config.toml.
	GlobalConfigPath string
	// CLIFlags holds explicit CLI flag overrides (highest precedence). Keys
	// are the flat field names from fieldKeys ("find_backend", ...).
	CLIFlags map[string]any
}

// Resolved is the result of multi-source configuration resolution.
type Resolved struct {
	Config  *Config
	Sources SourceMap
}

// Resolve runs the 5-layer configuration resolution pipeline:
//  1. Built-in defaults
//  2. Global config (~/.config/guibot/config.toml)
//  3. Repository config (guibot.toml in TargetDir)
//  4. Environment variables (GUIBOT_* prefix)
//  5. CLI flags (highest precedence)
//
// Missing config files are silently skipped; invalid files return an error.
func Resolve(opts ResolveOptions) (*Resolved, error) {
	k := koanf.New(".")
	sources := make(SourceMap)

	if err := mergeLayer(k, toFlatMap(Default()), sources, SourceDefault); err != nil {
		return nil, fmt.Errorf("globalconfig: loading defaults: %w", err)
	}

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			globalPath = filepath.Join(home, ".config", "guibot", "config.toml")
		}
	}
	if globalPath != "" {
		flat, err := loadFileLayer(globalPath)
		if err != nil {
			return nil, err
		}
		if flat != nil {
			slog.Debug("loading global config", "path", globalPath)
			if err := mergeLayer(k, flat, sources, SourceGlobal); err != nil {
				return nil, err
			}
		}
	}

	targetDir := opts.TargetDir
	if targetDir == "" {
		targetDir = "."
	}
	repoPath := filepath.Join(targetDir, "guibot.toml")
	flat, err := loadFileLayer(repoPath)
	if err != nil {
		return nil, err
	}
	if flat != nil {
		slog.Debug("loading repo config", "path", repoPath)
		if err := mergeLayer(k, flat, sources, SourceRepo); err != nil {
			return nil, err
		}
	}

	if envMap := buildEnvMap(); len(envMap) > 0 {
		if err := mergeLayer(k, envMap, sources, SourceEnv); err != nil {
			return nil, fmt.Errorf("globalconfig: loading env vars: %w", err)
		}
	}

	if len(opts.CLIFlags) > 0 {
		if err := mergeLayer(k, opts.CLIFlags, sources, SourceFlag); err != nil {
			return nil, fmt.Errorf("globalconfig: loading CLI flags: %w", err)
		}
	}

	cfg := fromKoanf(k)
	slog.Debug("config resolved",
		"find_backend", cfg.FindBackend,
		"image_logging_level", cfg.ImageLoggingLevel,
	)
	return &Resolved{Config: cfg, Sources: sources}, nil
}

// mergeLayer merges m into k and marks every key in m as originating from
// src, so a later layer setting the same value as an earlier one is still
// attributed to the later (higher-precedence) layer.
func mergeLayer(k *koanf.Koanf, m map[string]any, sources SourceMap, src Source) error {
	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return fmt.Errorf("globalconfig: merge layer %s: %w", src, err)
	}
	for key := range m {
		sources[key] = src
	}
	return nil
}

func fromKoanf(k *koanf.Koanf) *Config {
	return &Config{
		FindBackend: k.String("find_backend"),

		ContourThresholdBackend: k.String("contour_threshold_backend"),
		TemplateMatchBackend:    k.String("template_match_backend"),
		FeatureDetectBackend:    k.String("feature_detect_backend"),
		FeatureExtractBackend:   k.String("feature_extract_backend"),
		FeatureMatchBackend:     k.String("feature_match_backend"),
		TextDetectBackend:       k.String("text_detect_backend"),
		TextOCRBackend:          k.String("text_ocr_backend"),
		HybridMatchBackend:      k.String("hybrid_match_backend"),

		ImageLoggingLevel:       k.String("image_logging_level"),
		ImageLoggingDestination: k.String("image_logging_destination"),
		ImageLoggingStepWidth:   k.Int("image_logging_step_width"),
		ImageQuality:            k.Int("image_quality"),

		RescanSpeedOnExpected:   k.Float64("rescan_speed_on_expected"),
		RescanSpeedOnDeviation:  k.Float64("rescan_speed_on_deviation"),
		WaitForAnimations:       k.Bool("wait_for_animations"),
		SmoothMouseDrag:         k.Bool("smooth_mouse_drag"),
		ScreenAutoScalingFactor: k.Float64("screen_auto_scaling_factor"),
		DeltaXWarped:            k.Float64("delta_x_warped"),
		DeltaYWarped:            k.Float64("delta_y_warped"),
	}
}

// Explain returns, for each field key sources knows about, the field's
// current value in cfg and which layer set it -- the data behind `guibot
// config explain`.
func Explain(cfg *Config, sources SourceMap) map[string]struct {
	Value  any
	Source Source
} {
	flat := toFlatMap(cfg)
	out := make(map[string]struct {
		Value  any
		Source Source
	}, len(fieldKeys))
	for _, key := range fieldKeys {
		src, ok := sources[key]
		if !ok {
			src = SourceDefault
		}
		out[key] = struct {
			Value  any
			Source Source
		}{Value: flat[key], Source: src}
	}
	return out
}
