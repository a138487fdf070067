// Package main is the entry point for the guibot CLI tool.
package main

import (
	"os"

	"github.com/guibot-go/guibot/internal/buildinfo"
	"github.com/guibot-go/guibot/internal/cli"
)

// Build-time metadata injected via ldflags; copied into internal/buildinfo
// before the command tree runs so "guibot version" reports them.
var (
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
	goVersion = "unknown"
)

func main() {
	buildinfo.Version = version
	buildinfo.Commit = commit
	buildinfo.Date = date
	buildinfo.GoVersion = goVersion

	os.Exit(cli.Execute())
}
