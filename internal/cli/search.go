package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/casefile"
)

var searchCmd = &cobra.Command{
	Use:   "search <match-file>",
	Short: "Multi-start random search for a finder's parameters",
	Long: `Like calibrate, but restarts the twiddle search from random starting points (drawn
around each parameter's current value, or, with --uniform, uniformly over its
bounds), keeping
the best result found across all starts.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("cases", "", "path to a JSON case file (required)")
	searchCmd.MarkFlagRequired("cases")
	searchCmd.Flags().Int("starts", 5, "number of random restarts")
	searchCmd.Flags().Bool("uniform", false, "draw starting points uniformly over each parameter's bounds instead of around its current value")
	searchCmd.Flags().Bool("calibrate", true, "twiddle-refine each start before scoring it")
	searchCmd.Flags().Int("max-attempts", 50, "maximum twiddle attempts per start")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	matchPath := args[0]
	casesPath, _ := cmd.Flags().GetString("cases")
	starts, _ := cmd.Flags().GetInt("starts")
	uniform, _ := cmd.Flags().GetBool("uniform")
	doCalibrate, _ := cmd.Flags().GetBool("calibrate")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")

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

	errBefore := cal.Run(cmd.Context(), cal.Cases, f, calibrator.RunOptions{})
	if err := calibrator.Search(cmd.Context(), cal, f, starts, uniform, doCalibrate, maxAttempts, calibrator.RunOptions{}); err != nil {
		return NewError("search", err)
	}
	errAfter := cal.Run(cmd.Context(), cal.Cases, f, calibrator.RunOptions{})

	results := []calibrator.Result{
		{Method: "before", Similarity: 1 - errBefore},
		{Method: "after", Similarity: 1 - errAfter},
	}
	fmt.Fprint(cmd.OutOrStdout(), calibrator.Report(results))
	return nil
}
