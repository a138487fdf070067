package cli

import (
	"strings"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/globalconfig"
	"github.com/guibot-go/guibot/internal/imagelog"
)

// newRegistryAndLogger builds the shared finder.Registry and imagelog.Logger
// every match-driving command (find/chain/calibrate/search/benchmark) needs
// from a resolved Config.
func newRegistryAndLogger(resolved *globalconfig.Resolved) (*finder.Registry, *imagelog.Logger, error) {
	return finder.NewRegistry(), imagelog.New(
		resolved.Config.ImageLoggingDestination,
		imageLoggingLevel(resolved.Config.ImageLoggingLevel),
		resolved.Config.ImageLoggingStepWidth,
	), nil
}

// imageLoggingLevel maps globalconfig's string level name to imagelog.Level,
// defaulting to LevelInfo for an unrecognized or empty value.
func imageLoggingLevel(name string) imagelog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return imagelog.LevelDebug
	case "warning":
		return imagelog.LevelWarning
	case "error":
		return imagelog.LevelError
	case "off", "critical":
		return imagelog.LevelCritical
	default:
		return imagelog.LevelInfo
	}
}
