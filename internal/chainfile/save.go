package chainfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/matchfile"
	"github.com/guibot-go/guibot/internal/target"
)

// Save writes chain's flattened steps to path, one "<data>\t<match>" line
// per step, and recreates each step's ".match" file beside its data file
// (spec.md §6). Every step must carry target.OwnSettings; Load always
// produces steps that do, so this only fails for a Chain assembled by hand.
func Save(chain *target.Chain, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chainfile: %w", err)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	for _, step := range chain.Steps {
		dataPath, err := stepDataPath(step)
		if err != nil {
			return err
		}
		f, ok := stepFinder(step)
		if !ok {
			return fmt.Errorf("%w: %T", ErrMissingStepSettings, step)
		}

		matchPath := stripExt(dataPath) + ".match"
		mf, err := os.Create(matchPath)
		if err != nil {
			return fmt.Errorf("chainfile: %w", err)
		}
		if err := matchfile.SaveFinder(mf, f); err != nil {
			mf.Close()
			return err
		}
		if err := mf.Close(); err != nil {
			return fmt.Errorf("chainfile: %w", err)
		}

		if _, err := fmt.Fprintf(bw, "%s\t%s\n", dataPath, matchPath); err != nil {
			return fmt.Errorf("chainfile: %w", err)
		}
	}
	return bw.Flush()
}

func stepDataPath(step target.Target) (string, error) {
	switch t := step.(type) {
	case *target.Image:
		if t.Filename == "" {
			return "", fmt.Errorf("%w: image step", ErrMissingStepData)
		}
		return t.Filename, nil
	case *target.Pattern:
		if t.Path == "" {
			return "", fmt.Errorf("%w: pattern step", ErrMissingStepData)
		}
		return t.Path, nil
	case *target.Text:
		if t.SourceFile == "" {
			return "", fmt.Errorf("%w: text step", ErrMissingStepData)
		}
		return t.SourceFile, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrIncompatibleTargetFile, step)
	}
}

func stepFinder(step target.Target) (finder.Finder, bool) {
	own, ok := step.MatchSettings().(target.OwnSettings)
	if !ok {
		return nil, false
	}
	f, ok := own.F.(finder.Finder)
	return f, ok
}
