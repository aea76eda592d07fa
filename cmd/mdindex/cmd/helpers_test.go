package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate keeps user configuration and MDINDEX_* overrides out of a test.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{
		"MDINDEX_LOG_LEVEL", "MDINDEX_STORE_DRIVER", "MDINDEX_STORE_PATH",
		"MDINDEX_WATCH_DEBOUNCE", "MDINDEX_INDEX_WORKERS", "MDINDEX_LOG_DIR", "MDINDEX_COLOR",
	} {
		t.Setenv(k, "")
	}
}

const issueConfig = `kinds:
  - kind: issue
    properties: [status, priority]
rules:
  - path: "issues/**"
    kind: issue
`

// newTestWorkspace writes files under a fresh root and returns it.
func newTestWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	isolate(t)
	root := t.TempDir()
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func sampleFiles() map[string]string {
	return map[string]string{
		".mdindex.yaml": issueConfig,
		"readme.md":     "# Readme\n\nWelcome.\n",
		"issues/one.md": "---\ntitle: First issue\nstatus: open\npriority: high\n---\nBody\n",
		"issues/two.md": "---\nstatus: closed\n---\n# Second issue\n",
	}
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := execute(cmd, &stderr)
	return stdout.String(), stderr.String(), err
}

// syncBuffer is a bytes.Buffer safe for a command writing from another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
