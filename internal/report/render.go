package report

import (
	"fmt"
	"log/slog"
	"strings"
)

// Section is one unit of a rendered report: a calibration round, a
// benchmark row, or any other self-contained chunk of Markdown. Sections
// are the unit Render truncates at, mirroring the teacher's
// BudgetEnforcer's file-level unit but never splitting mid-section.
type Section struct {
	// Title is the section's Markdown heading text (without the "#" marks).
	Title string
	// Body is the section's Markdown body.
	Body string
}

// Stats summarizes one Render call.
type Stats struct {
	IncludedSections int
	ExcludedSections int
	TotalTokens      int
	BudgetUsed       int
	BudgetRemaining  int
}

// Renderer renders a slice of Sections as Markdown, truncated to a token
// budget, using tok to count tokens.
type Renderer struct {
	tok Tokenizer
}

// NewRenderer constructs a Renderer. A nil tok falls back to the character
// estimator.
func NewRenderer(tok Tokenizer) *Renderer {
	if tok == nil {
		tok = newEstimatorTokenizer()
	}
	return &Renderer{tok: tok}
}

// Render joins sections into one Markdown document, including sections in
// order until the next one would exceed maxTokens, then stops -- unlike the
// teacher's BudgetEnforcer, it never truncates a section's own content, only
// drops whole sections once the budget is spent (spec.md's calibration/
// benchmark sections are small and self-contained, so truncating mid-section
// would produce a misleading partial result rather than a useful summary).
//
// maxTokens <= 0 disables enforcement: every section is included.
func (r *Renderer) Render(sections []Section, maxTokens int) (string, Stats) {
	if maxTokens <= 0 {
		var b strings.Builder
		total := 0
		for _, s := range sections {
			writeSection(&b, s)
			total += r.tok.Count(sectionText(s))
		}
		return b.String(), Stats{
			IncludedSections: len(sections),
			TotalTokens:      total,
			BudgetUsed:       total,
			BudgetRemaining:  0,
		}
	}

	var b strings.Builder
	remaining := maxTokens
	stats := Stats{}

	for i, s := range sections {
		cost := r.tok.Count(sectionText(s))
		if cost > remaining {
			stats.ExcludedSections = len(sections) - i
			slog.Debug("report truncated at section boundary",
				"section", s.Title,
				"cost", cost,
				"remaining", remaining,
			)
			break
		}
		writeSection(&b, s)
		remaining -= cost
		stats.TotalTokens += cost
		stats.IncludedSections++
	}

	stats.BudgetUsed = stats.TotalTokens
	stats.BudgetRemaining = maxTokens - stats.BudgetUsed
	if stats.ExcludedSections > 0 {
		fmt.Fprintf(&b, "\n<!-- %d section(s) omitted: token budget exhausted -->\n", stats.ExcludedSections)
	}
	return b.String(), stats
}

func sectionText(s Section) string {
	return "## " + s.Title + "\n\n" + s.Body
}

func writeSection(b *strings.Builder, s Section) {
	b.WriteString("## ")
	b.WriteString(s.Title)
	b.WriteString("\n\n")
	b.WriteString(s.Body)
	b.WriteString("\n\n")
}
