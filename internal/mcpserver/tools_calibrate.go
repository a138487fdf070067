package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/casefile"
	"github.com/guibot-go/guibot/internal/matchfile"
	"github.com/guibot-go/guibot/internal/report"
)

// DescribeCalibrationInput is describe_calibration's tool input.
type DescribeCalibrationInput struct {
	// MatchPath is the path to a ".match" file naming the finder to calibrate.
	MatchPath string `json:"match_path"`
	// CasesPath is the path to a JSON case file (see internal/casefile).
	CasesPath string `json:"cases_path"`
	// MaxAttempts bounds the twiddle search (0 means 50, the same default
	// as guibot calibrate's --max-attempts flag).
	MaxAttempts int `json:"max_attempts,omitempty"`
	// MaxTokens bounds the rendered summary's size (0 disables the budget).
	MaxTokens int `json:"max_tokens,omitempty"`
}

// DescribeCalibrationOutput is describe_calibration's tool output.
type DescribeCalibrationOutput struct {
	Summary     string  `json:"summary"`
	ErrorBefore float64 `json:"error_before"`
	ErrorAfter  float64 `json:"error_after"`
}

func (s *Server) describeCalibration(ctx context.Context, req *mcp.CallToolRequest, in DescribeCalibrationInput) (*mcp.CallToolResult, DescribeCalibrationOutput, error) {
	mf, err := os.Open(in.MatchPath)
	if err != nil {
		return nil, DescribeCalibrationOutput{}, fmt.Errorf("mcpserver: describe_calibration: %w", err)
	}
	f, err := matchfile.LoadFinder(mf, s.registry, s.log)
	mf.Close()
	if err != nil {
		return nil, DescribeCalibrationOutput{}, fmt.Errorf("mcpserver: describe_calibration: %w", err)
	}

	cases, err := casefile.Load(in.CasesPath)
	if err != nil {
		return nil, DescribeCalibrationOutput{}, fmt.Errorf("mcpserver: %w", err)
	}

	cal := calibrator.New(cases...)
	maxAttempts := in.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 50
	}

	errBefore := cal.Run(ctx, cal.Cases, f, calibrator.RunOptions{})
	if err := calibrator.Calibrate(ctx, cal, f, maxAttempts, calibrator.RunOptions{}); err != nil {
		return nil, DescribeCalibrationOutput{}, fmt.Errorf("mcpserver: describe_calibration: %w", err)
	}
	errAfter := cal.Run(ctx, cal.Cases, f, calibrator.RunOptions{})

	results := []calibrator.Result{
		{Method: "before", Similarity: 1 - errBefore},
		{Method: "after", Similarity: 1 - errAfter},
	}

	var tok report.Tokenizer
	if in.MaxTokens > 0 {
		tok, err = report.NewTokenizer("")
		if err != nil {
			return nil, DescribeCalibrationOutput{}, fmt.Errorf("mcpserver: %w", err)
		}
	}
	summary, _ := calibrator.ReportBounded(results, tok, in.MaxTokens)

	return nil, DescribeCalibrationOutput{
		Summary:     summary,
		ErrorBefore: errBefore,
		ErrorAfter:  errAfter,
	}, nil
}
