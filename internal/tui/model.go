// Package tui renders a live dashboard for calibrate/search/benchmark runs
// (spec.md's calibration-tooling addition): an animated progress indicator
// while internal/calibrator runs in the background, followed by a
// backend-ranked results table once it finishes. Calibrate/Search/
// Benchmark expose no incremental per-round hook, so progress is shown as
// an indeterminate pulse rather than a true percentage -- the run itself
// is still a single blocking call, just one driven from a tea.Cmd instead
// of the calling goroutine.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guibot-go/guibot/internal/calibrator"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// RunFunc is the long-running operation the dashboard drives: Calibrate,
// Search, or Benchmark, adapted to a common signature returning the
// benchmark rows to display (a Calibrate/Search caller passes a RunFunc
// that runs the call and then a single-element or empty Benchmark-shaped
// summary of its own outcome).
type RunFunc func(ctx context.Context) ([]calibrator.Result, error)

type tickMsg time.Time

type doneMsg struct {
	results []calibrator.Result
	err     error
}

// Model is a bubbletea program driving one RunFunc to completion.
type Model struct {
	ctx     context.Context
	run     RunFunc
	title   string
	prog    progress.Model
	pulse   float64
	done    bool
	err     error
	results []calibrator.Result
	table   table.Model
}

// New constructs a Model that will run fn when started.
func New(ctx context.Context, title string, fn RunFunc) Model {
	return Model{
		ctx:   ctx,
		run:   fn,
		title: title,
		prog:  progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startRun(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) startRun() tea.Cmd {
	return func() tea.Msg {
		results, err := m.run(m.ctx)
		return doneMsg{results: results, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.prog.Width = msg.Width - 4

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.pulse += 0.04
		if m.pulse > 1 {
			m.pulse -= 1
		}
		return m, tick()

	case doneMsg:
		m.done = true
		m.err = msg.err
		m.results = msg.results
		if msg.err == nil {
			m.table = resultsTable(msg.results)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	header := titleStyle.Render(m.title)
	if !m.done {
		return fmt.Sprintf("%s\n\n%s\n\npress q to quit\n", header, m.prog.ViewAs(m.pulse))
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n", header, errStyle.Render(m.err.Error()))
	}
	return fmt.Sprintf("%s\n\n%s\n\npress q to quit\n", header, m.table.View())
}

func resultsTable(results []calibrator.Result) table.Model {
	columns := []table.Column{
		{Title: "method", Width: 20},
		{Title: "similarity", Width: 12},
		{Title: "elapsed", Width: 12},
	}
	rows := make([]table.Row, len(results))
	for i, r := range results {
		rows[i] = table.Row{r.Method, fmt.Sprintf("%.4f", r.Similarity), r.Elapsed.Round(time.Millisecond).String()}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)
	return t
}
