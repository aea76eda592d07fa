package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/mdindex/internal/config"
	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/store"
)

func TestScanCmd_IndexesWorkspace(t *testing.T) {
	// Given: a workspace with three documents
	root := newTestWorkspace(t, sampleFiles())

	// When: scanning it
	stdout, _, err := runCLI(t, "scan", root)

	// Then: the count and database path are reported
	require.NoError(t, err)
	assert.Contains(t, stdout, "Indexed 3 documents")
	assert.Contains(t, stdout, config.DataDirName)
}

func TestScanCmd_JSON(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())
	writeFile(t, root, "broken.md", "---\ntitle: [unclosed\n---\n")

	stdout, _, err := runCLI(t, "scan", "--json", "--root", root)
	require.NoError(t, err)

	var result scanResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, root, result.Root)
	assert.Equal(t, 4, result.Files)
	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 1, result.Skipped)
}

func TestScanCmd_LockedIndex(t *testing.T) {
	// Given: another writer holding the workspace lock
	root := newTestWorkspace(t, sampleFiles())
	lock := store.NewWriterLock(config.DataDir(root))
	require.NoError(t, lock.TryLock())
	defer func() { _ = lock.Unlock() }()

	// When: scanning
	_, stderr, err := runCLI(t, "scan", root)

	// Then: the scan is refused with a lock error
	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeIndexLocked, mderrors.GetCode(err))
	assert.Contains(t, stderr, "Hint:")
}

func TestScanCmd_InvalidConfig(t *testing.T) {
	root := newTestWorkspace(t, map[string]string{
		".mdindex.yaml": "watch:\n  debounce: soon\n",
	})

	_, _, err := runCLI(t, "scan", root)

	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeConfigInvalid, mderrors.GetCode(err))
}

func TestScanCmd_TooManyArgs(t *testing.T) {
	isolate(t)

	_, _, err := runCLI(t, "scan", "a", "b")

	require.Error(t, err)
}
