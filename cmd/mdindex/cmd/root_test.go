package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
)

func TestRootCmd_RegistersCommands(t *testing.T) {
	// Given: the root command
	cmd := NewRootCmd()

	// Then: every command is registered
	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	for _, name := range []string{"scan", "watch", "serve", "ls", "show", "query", "exec", "status", "doctor", "config", "logs", "version"} {
		assert.True(t, names[name], "missing command %s", name)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	debug := cmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, debug)
	assert.Equal(t, "false", debug.DefValue)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("root"))
	for _, name := range []string{"profile-cpu", "profile-mem", "profile-trace"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_ProfileFlagsWriteFiles(t *testing.T) {
	// Given: a command run with CPU and memory profiling
	isolate(t)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	// When: running version
	_, _, err := runCLI(t, "version", "--profile-cpu", cpu, "--profile-mem", mem)

	// Then: both profiles are written
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}

func TestRootCmd_VersionFlag(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "--version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "mdindex version")
}

func TestExecute_UnknownCommandPrintsError(t *testing.T) {
	isolate(t)

	_, stderr, err := runCLI(t, "frobnicate")

	require.Error(t, err)
	assert.Contains(t, stderr, "Error: unknown command")
	assert.NotContains(t, stderr, "Code:")
}

func TestExecute_StructuredErrorShowsCode(t *testing.T) {
	// Given: a root that does not exist
	isolate(t)
	missing := t.TempDir() + "/missing"

	// When: listing documents there
	_, stderr, err := runCLI(t, "ls", "--root", missing)

	// Then: the structured error is printed with its code
	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeInvalidPath, mderrors.GetCode(err))
	assert.Contains(t, stderr, "workspace root is not a directory")
	assert.Contains(t, stderr, "Code: "+mderrors.ErrCodeInvalidPath)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"interrupted", fmt.Errorf("scan: %w", context.Canceled), ExitInterrupted},
		{"locked", mderrors.New(mderrors.ErrCodeIndexLocked, "index is in use", nil), ExitIndexLocked},
		{"read-only query", mderrors.New(mderrors.ErrCodeReadOnlyQuery, "query tried to modify the index", nil), ExitInvalid},
		{"bad config", mderrors.ConfigError("invalid rule", nil), ExitInvalid},
		{"storage", mderrors.StorageError("disk full", nil), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
