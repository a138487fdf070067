package globalconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// loadFileLayer parses a TOML config file at path into a flat map containing
// only the fields explicitly present under its [guibot] table, e.g.:
//
//	[guibot]
//	find_backend = "template"
//	image_quality = 95
//
// only the fields explicitly present in the file. Missing files return
// (nil, nil) so a layer can be silently skipped; parse errors are returned.
func loadFileLayer(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("globalconfig: stat %s: %w", path, err)
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("globalconfig: parse %s: %w", path, err)
	}
	section, ok := raw["guibot"].(map[string]any)
	if !ok {
		return nil, nil
	}

	flat := make(map[string]any)
	for _, key := range fieldKeys {
		if v, ok := section[key]; ok {
			flat[key] = normalizeTOMLValue(key, v)
		}
	}
	return flat, nil
}

// normalizeTOMLValue converts BurntSushi/toml's raw decode types (int64 for
// every TOML integer) into the types the rest of the package expects.
func normalizeTOMLValue(key string, v any) any {
	switch n := v.(type) {
	case int64:
		return int(n)
	default:
		return v
	}
}
