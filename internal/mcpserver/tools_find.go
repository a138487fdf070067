package mcpserver

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guibot-go/guibot/internal/target"
)

// FindTargetInput is find_target's tool input.
type FindTargetInput struct {
	// NeedlePath is the path to the needle image file.
	NeedlePath string `json:"needle_path,omitempty"`
	// NeedleText, when set, searches for rendered text instead of an image.
	NeedleText string `json:"needle_text,omitempty"`
	// HaystackPath is the path to the haystack image file to search within.
	HaystackPath string `json:"haystack_path"`
	// Backend selects the finder.Registry entry to use (default "autopy").
	Backend string `json:"backend,omitempty"`
	// Similarity is the minimum match similarity, 0 to 1 (default 0.8).
	Similarity float64 `json:"similarity,omitempty"`
}

// FindTargetOutput is find_target's tool output.
type FindTargetOutput struct {
	Matches []MatchResult `json:"matches"`
}

// MatchResult mirrors target.Match as plain JSON-friendly fields.
type MatchResult struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
	Similarity float64 `json:"similarity"`
}

func (s *Server) findTarget(ctx context.Context, req *mcp.CallToolRequest, in FindTargetInput) (*mcp.CallToolResult, FindTargetOutput, error) {
	backend := in.Backend
	if backend == "" {
		backend = "autopy"
	}
	f, err := s.registry.New(backend, s.log)
	if err != nil {
		return nil, FindTargetOutput{}, fmt.Errorf("mcpserver: find_target: %w", err)
	}

	var needle target.Target
	switch {
	case in.NeedleText != "":
		txt := target.NewText(in.NeedleText)
		if in.Similarity > 0 {
			txt.SetSimilarity(in.Similarity)
		}
		needle = txt
	case in.NeedlePath != "":
		raster, err := target.LoadImage(in.NeedlePath)
		if err != nil {
			return nil, FindTargetOutput{}, fmt.Errorf("mcpserver: find_target: %w", err)
		}
		img := target.NewImage(raster, in.NeedlePath)
		if in.Similarity > 0 {
			img.SetSimilarity(in.Similarity)
		}
		needle = img
	default:
		return nil, FindTargetOutput{}, fmt.Errorf("mcpserver: find_target: one of needle_path or needle_text is required")
	}

	haystack, err := decodeImage(in.HaystackPath)
	if err != nil {
		return nil, FindTargetOutput{}, fmt.Errorf("mcpserver: find_target: %w", err)
	}

	matches, err := f.Find(ctx, needle, haystack)
	if err != nil {
		return nil, FindTargetOutput{}, fmt.Errorf("mcpserver: find_target: %w", err)
	}

	out := FindTargetOutput{Matches: make([]MatchResult, len(matches))}
	for i, m := range matches {
		out.Matches[i] = MatchResult{X: m.X, Y: m.Y, W: m.W, H: m.H, Similarity: m.Similarity}
	}
	return nil, out, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
