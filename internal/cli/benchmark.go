package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/casefile"
	"github.com/guibot-go/guibot/internal/tui"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark <cases-file>",
	Short: "Probe every registered backend once and rank the results",
	Long: `Enumerates every backend finder.Registry knows, probing each once
(optionally preceded by a search or calibrate pass) against the given case
file, and prints the results sorted by similarity descending.`,
	Args: cobra.ExactArgs(1),
	RunE: runBenchmark,
}

func init() {
	benchmarkCmd.Flags().Int("starts", 0, "random restarts per backend (0 skips Search)")
	benchmarkCmd.Flags().Bool("uniform", false, "draw Search's starting points uniformly over each parameter's bounds instead of around its current value")
	benchmarkCmd.Flags().Bool("calibrate", false, "twiddle-refine each backend before probing it")
	benchmarkCmd.Flags().Int("max-attempts", 50, "maximum twiddle attempts per backend")
	benchmarkCmd.Flags().Bool("tui", false, "show a live dashboard instead of printing a final table")
	rootCmd.AddCommand(benchmarkCmd)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	casesPath := args[0]
	starts, _ := cmd.Flags().GetInt("starts")
	uniform, _ := cmd.Flags().GetBool("uniform")
	doCalibrate, _ := cmd.Flags().GetBool("calibrate")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	useTUI, _ := cmd.Flags().GetBool("tui")

	resolved, err := resolveConfig(nil)
	if err != nil {
		return NewError("resolving configuration", err)
	}
	registry, log, err := newRegistryAndLogger(resolved)
	if err != nil {
		return err
	}

	cases, err := casefile.Load(casesPath)
	if err != nil {
		return NewError("loading case file", err)
	}
	cal := calibrator.New(cases...)

	opts := calibrator.BenchmarkOptions{
		RandomStarts: starts,
		Uniform:      uniform,
		Calibrate:    doCalibrate,
		MaxAttempts:  maxAttempts,
	}

	var results []calibrator.Result
	if useTUI {
		results, err = tui.RunBenchmark(cmd.Context(), cal, registry, log, opts)
	} else {
		results, err = calibrator.Benchmark(cmd.Context(), cal, registry, log, opts)
	}
	if err != nil {
		return NewError("benchmark", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), calibrator.Report(results))
	return nil
}
