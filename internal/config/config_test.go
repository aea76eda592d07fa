package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/mdindex/internal/kind"
)

// isolate points the user config at an empty directory so the developer's
// own config never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, k := range []string{"MDINDEX_LOG_LEVEL", "MDINDEX_STORE_DRIVER", "MDINDEX_STORE_PATH", "MDINDEX_WATCH_DEBOUNCE", "MDINDEX_INDEX_WORKERS"} {
		t.Setenv(k, "")
	}
	return xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Kinds)
	assert.Empty(t, cfg.Rules)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Paths.Extensions)
	assert.Equal(t, "100ms", cfg.Watch.Debounce)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, filepath.Join(".mdindex", "index.db"), cfg.Store.Path)
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, kind.Builtins(), cfg.Definitions())
	assert.Empty(t, cfg.Workspace().Rules)
}

func TestLoad_ProjectFile_KindsAndRules(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: a project config with kinds and rules
	writeFile(t, filepath.Join(dir, ProjectFileName), `
kinds:
  - kind: issue
    properties: [status, assignee]
  - kind: meeting
    properties: [date]
rules:
  - path: "issues/**"
    kind: issue
  - path: "meetings/*.md"
    kind: meeting
`)

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: rules keep order and definitions overlay the built-ins
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, kind.Rule{Pattern: "issues/**", Kind: kind.Issue}, cfg.Rules[0])
	assert.Equal(t, kind.Rule{Pattern: "meetings/*.md", Kind: "meeting"}, cfg.Rules[1])

	defs := cfg.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, []string{"status", "assignee"}, defs[1].Properties)
	assert.Equal(t, kind.Kind("meeting"), defs[2].Kind)
}

func TestLoad_IncompleteEntriesAreSkipped(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, ProjectFileName), `
kinds:
  - properties: [orphan]
  - kind: adr
rules:
  - path: "a/**"
  - kind: issue
  - path: "b/**"
    kind: adr
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, cfg.Kinds, 1)
	assert.Equal(t, kind.Kind("adr"), cfg.Kinds[0].Kind)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "b/**", cfg.Rules[0].Pattern)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFileNameAlt), "log_level: debug\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFileName), "log_level: warn\n")
	writeFile(t, filepath.Join(dir, ProjectFileNameAlt), "log_level: debug\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFileName), "rules: [unterminated\n")

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"absolute rule pattern", "rules:\n  - path: /abs/**\n    kind: issue\n"},
		{"bad exclude", "paths:\n  exclude: ['[unclosed']\n"},
		{"bad extension", "paths:\n  extensions: [md]\n"},
		{"bad debounce", "watch:\n  debounce: soon\n"},
		{"bad driver", "store:\n  driver: postgres\n"},
		{"bad log level", "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ProjectFileName), tt.content)

			_, err := Load(dir)

			assert.Error(t, err)
		})
	}
}

func TestLoad_MergeExcludePaths_AppendsToDefaults(t *testing.T) {
	xdg := isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(xdg, "mdindex", "config.yaml"), "paths:\n  exclude: ['drafts/**']\n")
	writeFile(t, filepath.Join(dir, ProjectFileName), "paths:\n  exclude: ['archive/**']\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"drafts/**", "archive/**"}, cfg.Paths.Exclude)
}

func TestLoad_UserConfigCannotDefineKinds(t *testing.T) {
	// Given: a user config that tries to set rules
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "mdindex", "config.yaml"), `
log_level: warn
rules:
  - path: "**"
    kind: issue
`)

	// When: loading a workspace without a project file
	cfg, err := Load(t.TempDir())

	// Then: machine settings apply but the rules do not
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.Rules)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	xdg := isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(xdg, "mdindex", "config.yaml"), "watch:\n  debounce: 1s\n")
	writeFile(t, filepath.Join(dir, ProjectFileName), "watch:\n  debounce: 250ms\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDuration())
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFileName), "log_level: warn\nstore:\n  driver: sqlite\n")
	t.Setenv("MDINDEX_LOG_LEVEL", "error")
	t.Setenv("MDINDEX_STORE_DRIVER", "sqlite3")
	t.Setenv("MDINDEX_WATCH_DEBOUNCE", "0s")
	t.Setenv("MDINDEX_INDEX_WORKERS", "3")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, time.Duration(0), cfg.DebounceDuration())
	assert.Equal(t, 3, cfg.Index.Workers)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "mdindex", "config.yaml"), "log_level: [unterminated\n")

	_, err := Load(t.TempDir())

	assert.Error(t, err)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")

	assert.Equal(t, filepath.Join("/custom/xdg", "mdindex", "config.yaml"), GetUserConfigPath())
}

func TestUserConfigExists(t *testing.T) {
	xdg := isolate(t)
	assert.False(t, UserConfigExists())

	writeFile(t, filepath.Join(xdg, "mdindex", "config.yaml"), "log_level: info\n")
	assert.True(t, UserConfigExists())
}

func TestStorePath(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, filepath.Join("/ws", ".mdindex", "index.db"), cfg.StorePath("/ws"))

	cfg.Store.Path = "/var/db/index.db"
	assert.Equal(t, "/var/db/index.db", cfg.StorePath("/ws"))
}

func TestFindProjectRoot_ConfigFile_ReturnsConfigLocation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), "log_level: info\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectRoot(nested)

	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectRoot(nested)

	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestConfig_YAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	cfg := NewConfig()
	cfg.Rules = []kind.Rule{{Pattern: "issues/**", Kind: kind.Issue}}

	data, err := cfg.YAML()
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFileName), string(data))
	loaded, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, cfg.Rules, loaded.Rules)
}
