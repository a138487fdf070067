// Package mcpserver exposes the matching core over the Model Context
// Protocol (spec.md's MCP front-end addition): find_target, list_chain_steps,
// and describe_calibration, each a thin adapter from an MCP tool call onto
// internal/finder, internal/chainfile, and internal/calibrator. Shaped after
// the teacher's internal/cli command wiring (a Server struct threaded
// explicitly through constructors rather than package-level state) and its
// exit-code plumbing, adapted to MCP's stdio transport instead of a cobra
// command tree.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
)

// Server wraps an MCP server with the dependencies its tool handlers need.
type Server struct {
	mcp      *mcp.Server
	registry *finder.Registry
	log      *imagelog.Logger
}

// Options configures New.
type Options struct {
	// Name and Version identify this server to MCP clients.
	Name, Version string
	Registry      *finder.Registry
	Logger        *imagelog.Logger
}

// New constructs a Server with find_target, list_chain_steps, and
// describe_calibration registered.
func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "guibot"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Registry == nil {
		opts.Registry = finder.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = imagelog.New("", imagelog.LevelCritical, 3)
	}

	s := &Server{
		mcp:      mcp.NewServer(&mcp.Implementation{Name: opts.Name, Version: opts.Version}, nil),
		registry: opts.Registry,
		log:      opts.Logger,
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_target",
		Description: "Locate a needle image or text inside a haystack image and return the matches found.",
	}, s.findTarget)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_chain_steps",
		Description: "Flatten a fallback-chain steps file into its ordered list of leaf targets.",
	}, s.listChainSteps)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "describe_calibration",
		Description: "Run a calibration pass for a match file against a case file and summarize the result.",
	}, s.describeCalibration)

	return s
}

// Run serves over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("mcp server starting", "transport", "stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcpserver: %w", err)
	}
	return nil
}
