package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/casefile"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/matchfile"
	"github.com/guibot-go/guibot/internal/report"
	"github.com/guibot-go/guibot/internal/tui"
)

// loadFinderFromMatchFile opens path and decodes the finder it names.
func loadFinderFromMatchFile(path string, registry *finder.Registry, log *imagelog.Logger) (finder.Finder, error) {
	mf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer mf.Close()
	return matchfile.LoadFinder(mf, registry, log)
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate <match-file>",
	Short: "Twiddle-search a finder's parameters against a set of known cases",
	Long: `Reads a finder from a ".match" file and a set of (needle, haystack, maximize)
cases from a case file, then hill-climbs the finder's CVParameters to reduce
the scalar error Calibrator.Run computes across all cases.`,
	Args: cobra.ExactArgs(1),
	RunE: runCalibrate,
}

func init() {
	calibrateCmd.Flags().String("cases", "", "path to a JSON case file (required)")
	calibrateCmd.MarkFlagRequired("cases")
	calibrateCmd.Flags().Int("max-attempts", 50, "maximum twiddle attempts")
	calibrateCmd.Flags().Int("max-tokens", 0, "bound the rendered summary to this many tokens (0 disables the budget)")
	calibrateCmd.Flags().Bool("tui", false, "show a live dashboard instead of printing a final summary")
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	matchPath := args[0]
	casesPath, _ := cmd.Flags().GetString("cases")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	useTUI, _ := cmd.Flags().GetBool("tui")

	resolved, err := resolveConfig(nil)
	if err != nil {
		return NewError("resolving configuration", err)
	}
	registry, log, err := newRegistryAndLogger(resolved)
	if err != nil {
		return err
	}

	f, err := loadFinderFromMatchFile(matchPath, registry, log)
	if err != nil {
		return NewError("loading match file", err)
	}

	cases, err := casefile.Load(casesPath)
	if err != nil {
		return NewError("loading case file", err)
	}
	cal := calibrator.New(cases...)

	if useTUI {
		results, err := tui.RunCalibrate(cmd.Context(), cal, f, maxAttempts, calibrator.RunOptions{})
		if err != nil {
			return NewError("calibrate", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), calibrator.Report(results))
		return nil
	}

	errBefore := cal.Run(cmd.Context(), cal.Cases, f, calibrator.RunOptions{})
	if err := calibrator.Calibrate(cmd.Context(), cal, f, maxAttempts, calibrator.RunOptions{}); err != nil {
		return NewError("calibrate", err)
	}
	errAfter := cal.Run(cmd.Context(), cal.Cases, f, calibrator.RunOptions{})

	results := []calibrator.Result{
		{Method: "before", Similarity: 1 - errBefore},
		{Method: "after", Similarity: 1 - errAfter},
	}

	var tok report.Tokenizer
	if maxTokens > 0 {
		tok, err = report.NewTokenizer("")
		if err != nil {
			return NewError("constructing tokenizer", err)
		}
	}
	summary, _ := calibrator.ReportBounded(results, tok, maxTokens)
	fmt.Fprint(cmd.OutOrStdout(), summary)
	return nil
}
