package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/globalconfig"
)

// configCmd is the parent command for configuration-related subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long: `Configuration management commands for guibot.

  explain  Show the fully resolved configuration with per-field source annotations`,
}

var configExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show resolved configuration with source annotations",
	Long: `Displays the complete resolved configuration showing exactly which layer
(built-in default, global config, repo config, environment variable, or CLI
flag) provided each value. Useful for diagnosing unexpected backend selection.`,
	RunE: runConfigExplain,
}

func init() {
	configExplainCmd.Flags().Bool("json", false, "output as structured JSON")
	configCmd.AddCommand(configExplainCmd)
	rootCmd.AddCommand(configCmd)
}

type explainEntry struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

func runConfigExplain(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	resolved, err := resolveConfig(nil)
	if err != nil {
		return NewError("resolving configuration", err)
	}

	explained := globalconfig.Explain(resolved.Config, resolved.Sources)
	entries := make([]explainEntry, 0, len(explained))
	for key, e := range explained {
		entries = append(entries, explainEntry{Key: key, Value: e.Value, Source: e.Source.String()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%-28s %-14v (%s)\n", e.Key, e.Value, e.Source)
	}
	return nil
}
