package cli

import (
	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/buildinfo"
	"github.com/guibot-go/guibot/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve find_target/list_chain_steps/describe_calibration over MCP stdio",
	Long: `Starts an MCP server exposing the matching core to an MCP client over
stdio, until the client disconnects or the process is interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	resolved, err := resolveConfig(nil)
	if err != nil {
		return NewError("resolving configuration", err)
	}
	registry, log, err := newRegistryAndLogger(resolved)
	if err != nil {
		return err
	}

	s := mcpserver.New(mcpserver.Options{
		Name:     "guibot",
		Version:  buildinfo.Version,
		Registry: registry,
		Logger:   log,
	})
	if err := s.Run(cmd.Context()); err != nil {
		return NewError("serve", err)
	}
	return nil
}
