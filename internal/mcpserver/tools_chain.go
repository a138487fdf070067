package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guibot-go/guibot/internal/chainfile"
	"github.com/guibot-go/guibot/internal/resolver"
	"github.com/guibot-go/guibot/internal/target"
)

// ListChainStepsInput is list_chain_steps's tool input.
type ListChainStepsInput struct {
	// StepsPath is the path to a ".steps" fallback-chain file.
	StepsPath string `json:"steps_path"`
}

// ListChainStepsOutput is list_chain_steps's tool output.
type ListChainStepsOutput struct {
	Steps []ChainStep `json:"steps"`
}

// ChainStep describes one flattened leaf step of a loaded Chain.
type ChainStep struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

func (s *Server) listChainSteps(ctx context.Context, req *mcp.CallToolRequest, in ListChainStepsInput) (*mcp.CallToolResult, ListChainStepsOutput, error) {
	r := resolver.NewDefaultResolver()
	chain, err := chainfile.Load(ctx, r, s.registry, s.log, in.StepsPath)
	if err != nil {
		return nil, ListChainStepsOutput{}, fmt.Errorf("mcpserver: list_chain_steps: %w", err)
	}

	out := ListChainStepsOutput{Steps: make([]ChainStep, len(chain.Steps))}
	for i, step := range chain.Steps {
		out.Steps[i] = ChainStep{Kind: step.Kind().String(), Path: stepPath(step)}
	}
	return nil, out, nil
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
