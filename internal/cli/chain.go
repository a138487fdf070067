package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/chainfile"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/globalconfig"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/resolver"
	"github.com/guibot-go/guibot/internal/target"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Work with fallback-chain steps files",
}

var chainListCmd = &cobra.Command{
	Use:   "list <steps-file>",
	Short: "Flatten a steps file and print its leaf targets in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runChainList,
}

var chainRunCmd = &cobra.Command{
	Use:   "run <steps-file>",
	Short: "Run a fallback chain against a haystack image",
	Args:  cobra.ExactArgs(1),
	RunE:  runChainRun,
}

func init() {
	chainRunCmd.Flags().String("haystack", "", "path to the haystack image file (required)")
	chainRunCmd.MarkFlagRequired("haystack")
	chainRunCmd.Flags().Bool("json", false, "output matches as JSON")

	chainCmd.AddCommand(chainListCmd, chainRunCmd)
	rootCmd.AddCommand(chainCmd)
}

func loadChain(cmd *cobra.Command, stepsPath string) (*target.Chain, *finder.Registry, *imagelog.Logger, *globalconfig.Resolved, error) {
	resolved, err := resolveConfig(nil)
	if err != nil {
		return nil, nil, nil, nil, NewError("resolving configuration", err)
	}
	registry, log, err := newRegistryAndLogger(resolved)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	chain, err := chainfile.Load(cmd.Context(), resolver.NewDefaultResolver(), registry, log, stepsPath)
	if err != nil {
		return nil, nil, nil, nil, NewError("loading steps file", err)
	}
	return chain, registry, log, resolved, nil
}

func runChainList(cmd *cobra.Command, args []string) error {
	chain, _, _, _, err := loadChain(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, step := range chain.Steps {
		fmt.Fprintf(out, "%s\t%s\n", step.Kind().String(), stepPath(step))
	}
	return nil
}

func runChainRun(cmd *cobra.Command, args []string) error {
	chain, registry, log, resolved, err := loadChain(cmd, args[0])
	if err != nil {
		return err
	}
	haystackPath, _ := cmd.Flags().GetString("haystack")
	asJSON, _ := cmd.Flags().GetBool("json")

	haystack, err := target.LoadImage(haystackPath)
	if err != nil {
		return NewError("loading haystack image", err)
	}

	def, err := registry.New(resolved.Config.FindBackend, log)
	if err != nil {
		return NewError("selecting hybrid default backend", err)
	}
	hybrid := finder.NewHybridFinder(log, def)

	matches, err := hybrid.Find(cmd.Context(), chain, haystack)
	if err != nil {
		return NewError("chain run", err)
	}
	if len(matches) == 0 {
		return NewNoMatchError(fmt.Sprintf("no match found in %s", haystackPath))
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%d,%d %dx%d similarity=%.4f\n", m.X, m.Y, m.W, m.H, m.Similarity)
	}
	return nil
}

func stepPath(step target.Target) string {
	switch t := step.(type) {
	case *target.Image:
		return t.Filename
	case *target.Pattern:
		return t.Path
	case *target.Text:
		return t.SourceFile
	default:
		return ""
	}
}
