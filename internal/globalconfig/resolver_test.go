package globalconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/globalconfig"
)

func writeTOML(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestResolveReturnsDefaultsWithNoFiles(t *testing.T) {
	dir := t.TempDir()
	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
	})
	require.NoError(t, err)
	assert.Equal(t, globalconfig.Default().FindBackend, resolved.Config.FindBackend)
	assert.Equal(t, globalconfig.SourceDefault, resolved.Sources["find_backend"])
}

func TestResolveRepoConfigOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	writeTOML(t, globalPath, "[guibot]\nfind_backend = \"contour\"\n")
	writeTOML(t, filepath.Join(dir, "guibot.toml"), "[guibot]\nfind_backend = \"template\"\n")

	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: globalPath,
	})
	require.NoError(t, err)
	assert.Equal(t, "template", resolved.Config.FindBackend)
	assert.Equal(t, globalconfig.SourceRepo, resolved.Sources["find_backend"])
}

func TestResolveEnvOverridesRepo(t *testing.T) {
	dir := t.TempDir()
	writeTOML(t, filepath.Join(dir, "guibot.toml"), "[guibot]\nfind_backend = \"template\"\n")
	t.Setenv("GUIBOT_FIND_BACKEND", "feature")

	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
	})
	require.NoError(t, err)
	assert.Equal(t, "feature", resolved.Config.FindBackend)
	assert.Equal(t, globalconfig.SourceEnv, resolved.Sources["find_backend"])
}

func TestResolveCLIFlagOverridesEverything(t *testing.T) {
	dir := t.TempDir()
	writeTOML(t, filepath.Join(dir, "guibot.toml"), "[guibot]\nfind_backend = \"template\"\n")
	t.Setenv("GUIBOT_FIND_BACKEND", "feature")

	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		CLIFlags:         map[string]any{"find_backend": "autopy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "autopy", resolved.Config.FindBackend)
	assert.Equal(t, globalconfig.SourceFlag, resolved.Sources["find_backend"])
}

func TestResolveMissingRepoFileIsSkippedSilently(t *testing.T) {
	dir := t.TempDir()
	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
	})
	require.NoError(t, err)
	assert.NotNil(t, resolved.Config)
}

func TestResolveInvalidTOMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeTOML(t, filepath.Join(dir, "guibot.toml"), "not valid toml [[[")
	_, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
	})
	assert.Error(t, err)
}

func TestResolveIntegerFieldFromTOML(t *testing.T) {
	dir := t.TempDir()
	writeTOML(t, filepath.Join(dir, "guibot.toml"), "[guibot]\nimage_quality = 42\n")
	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
	})
	require.NoError(t, err)
	assert.Equal(t, 42, resolved.Config.ImageQuality)
}

func TestExplainReportsValueAndSource(t *testing.T) {
	dir := t.TempDir()
	writeTOML(t, filepath.Join(dir, "guibot.toml"), "[guibot]\nfind_backend = \"template\"\n")
	resolved, err := globalconfig.Resolve(globalconfig.ResolveOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
	})
	require.NoError(t, err)

	explained := globalconfig.Explain(resolved.Config, resolved.Sources)
	entry, ok := explained["find_backend"]
	require.True(t, ok)
	assert.Equal(t, "template", entry.Value)
	assert.Equal(t, globalconfig.SourceRepo, entry.Source)
}
