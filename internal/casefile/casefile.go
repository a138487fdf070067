// Package casefile loads calibrator.Case lists from an on-disk JSON format:
// a flat array of (needle image, haystack image, maximize) triples. Neither
// spec.md nor the original project define an on-disk case format -- cases
// are assembled in code -- so this is a minimal addition letting the CLI's
// calibrate/search/benchmark commands and the MCP server's
// describe_calibration tool accept the same file instead of each inventing
// its own shape.
package casefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/guibot-go/guibot/internal/calibrator"
	"github.com/guibot-go/guibot/internal/target"
)

// File is the on-disk JSON shape: {"cases": [{"needle_path", "haystack_path", "maximize"}, ...]}.
type File struct {
	Cases []Entry `json:"cases"`
}

// Entry is one case: paths to a needle and haystack image, plus whether a
// high similarity between them is the desired outcome (Maximize) or not.
type Entry struct {
	NeedlePath   string `json:"needle_path"`
	HaystackPath string `json:"haystack_path"`
	Maximize     bool   `json:"maximize"`
}

// Load reads path and resolves every entry's images into a []calibrator.Case.
func Load(path string) ([]calibrator.Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("casefile: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("casefile: parse %s: %w", path, err)
	}

	cases := make([]calibrator.Case, 0, len(f.Cases))
	for _, e := range f.Cases {
		needleRaster, err := target.LoadImage(e.NeedlePath)
		if err != nil {
			return nil, fmt.Errorf("casefile: needle: %w", err)
		}
		haystackRaster, err := target.LoadImage(e.HaystackPath)
		if err != nil {
			return nil, fmt.Errorf("casefile: haystack: %w", err)
		}
		cases = append(cases, calibrator.Case{
			Needle:   target.NewImage(needleRaster, e.NeedlePath),
			Haystack: target.NewImage(haystackRaster, e.HaystackPath),
			Maximize: e.Maximize,
		})
	}
	return cases, nil
}
