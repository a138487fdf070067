package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guibot-go/guibot/internal/controller"
	"github.com/guibot-go/guibot/internal/target"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Locate a needle image or text inside a haystack image",
	Long: `Searches a haystack image for a needle (an image file or literal text)
using the configured or selected matching backend, and reports every match
found, sorted by descending similarity.`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().String("needle", "", "path to the needle image file")
	findCmd.Flags().String("needle-text", "", "literal text to search for, instead of --needle")
	findCmd.Flags().String("haystack", "", "path to the haystack image file (required)")
	findCmd.Flags().String("backend", "", "finder.Registry backend name (default: the resolved find_backend)")
	findCmd.Flags().Float64("similarity", 0, "minimum match similarity, 0 to 1 (0 keeps the target's own default)")
	findCmd.Flags().Bool("json", false, "output matches as JSON")
	findCmd.MarkFlagRequired("haystack")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	needlePath, _ := cmd.Flags().GetString("needle")
	needleText, _ := cmd.Flags().GetString("needle-text")
	haystackPath, _ := cmd.Flags().GetString("haystack")
	backend, _ := cmd.Flags().GetString("backend")
	similarity, _ := cmd.Flags().GetFloat64("similarity")
	asJSON, _ := cmd.Flags().GetBool("json")

	resolved, err := resolveConfig(nil)
	if err != nil {
		return NewError("resolving configuration", err)
	}
	if backend == "" {
		backend = resolved.Config.FindBackend
	}

	registry, log, err := newRegistryAndLogger(resolved)
	if err != nil {
		return err
	}
	f, err := registry.New(backend, log)
	if err != nil {
		return NewError("selecting backend", err)
	}

	var needle target.Target
	switch {
	case needleText != "":
		txt := target.NewText(needleText)
		if similarity > 0 {
			txt.SetSimilarity(similarity)
		}
		needle = txt
	case needlePath != "":
		raster, err := target.LoadImage(needlePath)
		if err != nil {
			return NewError("loading needle image", err)
		}
		img := target.NewImage(raster, needlePath)
		if similarity > 0 {
			img.SetSimilarity(similarity)
		}
		needle = img
	default:
		return NewError("find", fmt.Errorf("one of --needle or --needle-text is required"))
	}

	// No live display is wired in; --haystack always names a file standing
	// in for a captured screen, read through the same Controller boundary
	// the matching core would use against a real one.
	screen, err := controller.LoadFakeController(haystackPath)
	if err != nil {
		return NewError("loading haystack image", err)
	}
	haystack, err := screen.CaptureScreen(nil)
	if err != nil {
		return NewError("capturing haystack", err)
	}

	matches, err := f.Find(cmd.Context(), needle, haystack)
	if err != nil {
		return NewError("find", err)
	}
	if len(matches) == 0 {
		return NewNoMatchError(fmt.Sprintf("no match found in %s", haystackPath))
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%d,%d %dx%d similarity=%.4f\n", m.X, m.Y, m.W, m.H, m.Similarity)
	}
	return nil
}
