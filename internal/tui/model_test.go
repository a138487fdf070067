package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/calibrator"
)

func TestInitBatchesRunAndTick(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	cmd := m.Init()
	require.NotNil(t, cmd)
}

func TestUpdateTickAdvancesPulseBeforeDone(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	updated, cmd := m.Update(tickMsg(time.Now()))
	next := updated.(Model)
	assert.Greater(t, next.pulse, 0.0)
	assert.NotNil(t, cmd)
}

func TestUpdateTickIsANoopOnceDone(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	m.done = true
	updated, cmd := m.Update(tickMsg(time.Now()))
	next := updated.(Model)
	assert.Equal(t, 0.0, next.pulse)
	assert.Nil(t, cmd)
}

func TestUpdateDoneMsgWithResultsBuildsTable(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	results := []calibrator.Result{
		{Method: "autopy", Similarity: 0.97, Elapsed: 5 * time.Millisecond},
		{Method: "orb", Similarity: 0.81, Elapsed: 12 * time.Millisecond},
	}
	updated, cmd := m.Update(doneMsg{results: results})
	next := updated.(Model)
	assert.True(t, next.done)
	assert.NoError(t, next.err)
	assert.Nil(t, cmd)
	assert.Contains(t, next.View(), "autopy")
	assert.Contains(t, next.View(), "orb")
}

func TestUpdateDoneMsgWithErrorSkipsTable(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	updated, _ := m.Update(doneMsg{err: errors.New("boom")})
	next := updated.(Model)
	assert.True(t, next.done)
	assert.Error(t, next.err)
	assert.Contains(t, next.View(), "boom")
}

func TestUpdateQuitKeyQuits(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.Quit(), cmd())
}

func TestViewBeforeDoneShowsTitleAndHint(t *testing.T) {
	m := New(context.Background(), "benchmark", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	view := m.View()
	assert.Contains(t, view, "benchmark")
	assert.Contains(t, view, "press q to quit")
}

func TestWindowSizeMsgResizesProgressBar(t *testing.T) {
	m := New(context.Background(), "probe", func(ctx context.Context) ([]calibrator.Result, error) {
		return nil, nil
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next := updated.(Model)
	assert.Equal(t, 76, next.prog.Width)
}
