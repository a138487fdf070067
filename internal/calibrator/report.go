package calibrator

import (
	"fmt"
	"strings"

	"github.com/guibot-go/guibot/internal/report"
)

// Report renders a Benchmark result set as compact Markdown suitable for a
// terminal, a PR comment, or an MCP tool response: one table row per
// method, best similarity first. This is an ambient addition beyond
// spec.md's Calibrator contract (§4.G only specifies the numeric results).
func Report(results []Result) string {
	var b strings.Builder
	b.WriteString("| method | similarity | elapsed |\n")
	b.WriteString("|---|---|---|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %.4f | %s |\n", r.Method, r.Similarity, r.Elapsed.Round(1e6))
	}
	return b.String()
}

// ReportBounded renders results the same way as Report, but as one
// internal/report.Section per method and passed through a token-budget
// Renderer, so a caller with a limited context window (the MCP front-end's
// describe_calibration tool) gets a result that fits maxTokens rather than
// the unbounded full table.
func ReportBounded(results []Result, tok report.Tokenizer, maxTokens int) (string, report.Stats) {
	sections := make([]report.Section, 0, len(results))
	for _, r := range results {
		sections = append(sections, report.Section{
			Title: r.Method,
			Body:  fmt.Sprintf("similarity: %.4f\nelapsed: %s", r.Similarity, r.Elapsed.Round(1e6)),
		})
	}
	renderer := report.NewRenderer(tok)
	return renderer.Render(sections, maxTokens)
}
