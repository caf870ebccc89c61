package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "dartfront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"), nil)
	// An explicit but missing config file is an error.
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCoreLibrary, cfg.SDK.CoreLibrary)
	assert.True(t, cfg.SDK.StrongMode)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.FileUsed)
	assert.NotEmpty(t, cfg.ProjectRoot)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
sdk:
  core_library: dart:core
  strong_mode: false
  libraries:
    core: sdk/core.lib.yaml
    mirrors: ""
format: json
verbose: true
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.False(t, cfg.SDK.StrongMode)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, cfg.FileUsed)
	assert.Equal(t, dir, cfg.ProjectRoot)

	// Supported derives from path presence.
	supported := cfg.SDK.Supported()
	assert.True(t, supported["core"])
	assert.False(t, supported["mirrors"])
}

func TestLoadUpwardSearch(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "format: json\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.NotEmpty(t, cfg.FileUsed)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "format: json\n")
	t.Setenv("DARTFRONT_FORMAT", "table")
	t.Setenv("DARTFRONT_SDK__CORE_LIBRARY", "dart:base")
	t.Setenv("DARTFRONT_SDK__STRONG_MODE", "false")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Format)
	assert.Equal(t, "dart:base", cfg.SDK.CoreLibrary)
	assert.False(t, cfg.SDK.StrongMode)
}

func TestFlagsOverrideEverything(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "format: json\n")
	t.Setenv("DARTFRONT_FORMAT", "yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "", "")
	flags.String("core-library", "", "")
	flags.Bool("strong-mode", true, "")
	require.NoError(t, flags.Parse([]string{"--format=table", "--core-library=dart:mini", "--strong-mode=false"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Format)
	assert.Equal(t, "dart:mini", cfg.SDK.CoreLibrary)
	assert.False(t, cfg.SDK.StrongMode)
}

func TestUnchangedFlagsDoNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "format: json\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
