package globalconfig

// Source identifies which configuration layer provided a value. Higher
// values indicate higher precedence.
type Source int

const (
	// SourceDefault is the built-in fallback (lowest precedence).
	SourceDefault Source = iota
	// SourceGlobal is the user's global config (~/.config/guibot/config.toml).
	SourceGlobal
	// SourceRepo is the project-local guibot.toml in the target directory.
	SourceRepo
	// SourceEnv is a GUIBOT_* environment variable override.
	SourceEnv
	// SourceFlag is an explicit CLI flag (highest precedence).
	SourceFlag
)

// String returns the human-readable name of the source.
func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceGlobal:
		return "global"
	case SourceRepo:
		return "repo"
	case SourceEnv:
		return "env"
	case SourceFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// SourceMap tracks where each Config field value originated. Keys are the
// flat field names used by toFlatMap ("find_backend", "image_quality", ...).
type SourceMap map[string]Source
