package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/globalconfig"
)

// globalFlags holds the persistent flag values every subcommand shares,
// bound once in init and read in PersistentPreRunE / resolveConfig.
type globalFlags struct {
	verbose          bool
	quiet            bool
	globalConfigPath string
	repoConfigDir    string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "guibot",
	Short: "Locate and tune GUI image/text matches.",
	Long: `guibot finds images, text, and patterns inside screenshots using a family
of pluggable matching backends (pixel-exact, template correlation, feature
keypoints, contour shape, cascade classifiers, OCR text), and tunes a
backend's parameters against a set of known-good and known-bad cases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := ResolveLogLevel(flags.verbose, flags.quiet)
		format := ResolveLogFormat()
		SetupLogging(level, format)
		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().StringVar(&flags.globalConfigPath, "global-config", "", "path to the global config file (default: ~/.config/guibot/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flags.repoConfigDir, "repo-dir", ".", "directory to search for a repo-level guibot.toml")
}

// resolveConfig runs globalconfig.Resolve using the shared persistent flags
// plus any command-specific CLI overrides.
func resolveConfig(cliOverrides map[string]any) (*globalconfig.Resolved, error) {
	return globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        flags.repoConfigDir,
		GlobalConfigPath: flags.globalConfigPath,
		CLIFlags:         cliOverrides,
	})
}

// Execute runs the root command and returns the process exit code. A
// *GuibotError's Code is honored; any other non-nil error maps to ExitError.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	return int(ExitSuccess)
}

func extractExitCode(err error) int {
	if err == nil {
		return int(ExitSuccess)
	}
	var guibotErr *GuibotError
	if errors.As(err, &guibotErr) {
		return guibotErr.Code
	}
	return int(ExitError)
}

// RootCmd returns the root cobra.Command, for testing and subcommand registration.
func RootCmd() *cobra.Command {
	return rootCmd
}
