package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
)

// RunBenchmark drives calibrator.Benchmark through the dashboard and
// returns its final results once the program exits, backing `guibot
// benchmark --tui`.
func RunBenchmark(ctx context.Context, cal *calibrator.Calibrator, registry *finder.Registry, log *imagelog.Logger, opts calibrator.BenchmarkOptions) ([]calibrator.Result, error) {
	m := New(ctx, "benchmark", func(ctx context.Context) ([]calibrator.Result, error) {
		return calibrator.Benchmark(ctx, cal, registry, log, opts)
	})
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	final, ok := finalModel.(Model)
	if !ok {
		return nil, fmt.Errorf("tui: unexpected program result type %T", finalModel)
	}
	if final.err != nil {
		return nil, final.err
	}
	return final.results, nil
}

// RunCalibrate drives calibrator.Calibrate through the dashboard, reporting
// its before/after error as a two-row Benchmark-shaped result set so the
// same Model/table rendering serves both backing `guibot calibrate --tui`.
func RunCalibrate(ctx context.Context, cal *calibrator.Calibrator, f finder.Finder, maxAttempts int, opts calibrator.RunOptions) ([]calibrator.Result, error) {
	m := New(ctx, "calibrate", func(ctx context.Context) ([]calibrator.Result, error) {
		before := cal.Run(ctx, cal.Cases, f, opts)
		if err := calibrator.Calibrate(ctx, cal, f, maxAttempts, opts); err != nil {
			return nil, err
		}
		after := cal.Run(ctx, cal.Cases, f, opts)
		return []calibrator.Result{
			{Method: "before", Similarity: 1 - before},
			{Method: "after", Similarity: 1 - after},
		}, nil
	})
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	final, ok := finalModel.(Model)
	if !ok {
		return nil, fmt.Errorf("tui: unexpected program result type %T", finalModel)
	}
	if final.err != nil {
		return nil, final.err
	}
	return final.results, nil
}
