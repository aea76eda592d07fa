package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/mdindex/configs"
	"github.com/Aman-CERP/mdindex/internal/config"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// When: finding config command
	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	// Then: init, show and path are available
	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["show"])
	assert.True(t, names["path"])
}

func TestConfigInit_CreatesProjectFile(t *testing.T) {
	// Given: a workspace without configuration
	root := newTestWorkspace(t, nil)

	// When: running config init
	stdout, _, err := runCLI(t, "config", "init", "--root", root)

	// Then: the project template is written
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created configuration")
	data, err := os.ReadFile(filepath.Join(root, config.ProjectFileName))
	require.NoError(t, err)
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))

	// And: the template loads cleanly
	cfg, err := config.Load(root)
	require.NoError(t, err)
	assert.Len(t, cfg.Kinds, 1)
}

func TestConfigInit_ExistingFileKeptWithoutForce(t *testing.T) {
	root := newTestWorkspace(t, map[string]string{".mdindex.yaml": "log_level: debug\n"})

	stdout, _, err := runCLI(t, "config", "init", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")
	data, err := os.ReadFile(filepath.Join(root, ".mdindex.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "log_level: debug\n", string(data))
}

func TestConfigInit_ForceBacksUp(t *testing.T) {
	// Given: an existing .yml project file
	root := newTestWorkspace(t, map[string]string{".mdindex.yml": "log_level: debug\n"})
	path := filepath.Join(root, ".mdindex.yml")

	// When: forcing init
	stdout, _, err := runCLI(t, "config", "init", "--root", root, "--force")

	// Then: the file is replaced in place and a backup is kept
	require.NoError(t, err)
	assert.Contains(t, stdout, "Backup:")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))

	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "log_level: debug\n", string(old))
}

func TestConfigInit_User(t *testing.T) {
	isolate(t)

	_, _, err := runCLI(t, "config", "init", "--user")

	require.NoError(t, err)
	assert.True(t, config.UserConfigExists())
	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))
}

func TestConfigPath(t *testing.T) {
	root := newTestWorkspace(t, nil)

	stdout, _, err := runCLI(t, "config", "path", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, config.ProjectFileName)+"\n", stdout)

	stdout, _, err = runCLI(t, "config", "path", "--user")
	require.NoError(t, err)
	assert.Equal(t, config.GetUserConfigPath()+"\n", stdout)
}

func TestConfigShow_DefaultsJSON(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "config", "show", "--source", "defaults", "--json")
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &parsed))
	assert.Equal(t, "info", parsed["log_level"])
}

func TestConfigShow_Merged(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "config", "show", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, stdout, "merged")
	assert.Contains(t, stdout, "kind: issue")
	assert.Contains(t, stdout, "debounce: 100ms")
}

func TestConfigShow_ProjectMissing(t *testing.T) {
	root := newTestWorkspace(t, nil)

	stdout, _, err := runCLI(t, "config", "show", "--root", root, "--source", "project")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No project configuration file found")
}

func TestConfigShow_UserMissing(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "config", "show", "--source", "user")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No user configuration file found")
}

func TestConfigShow_InvalidSource(t *testing.T) {
	isolate(t)

	_, _, err := runCLI(t, "config", "show", "--source", "bogus")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}
