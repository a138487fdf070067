package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger. format should be
// "json" for structured output or anything else (including empty) for
// human-readable text. All log output goes to os.Stderr so stdout stays
// clean for match/report output that scripts may pipe.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is SetupLogging with an explicit writer, for tests.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel determines the slog.Level from CLI flags and environment,
// highest priority first: GUIBOT_DEBUG=1, then --verbose, then --quiet,
// then LevelInfo.
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("GUIBOT_DEBUG") == "1" {
		return slog.LevelDebug
	}
	if verbose {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveLogFormat reads GUIBOT_LOG_FORMAT, returning "json" when it is set
// to that value (case-insensitive) and "text" otherwise.
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("GUIBOT_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}
