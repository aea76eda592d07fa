package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LogDirEnv overrides the log directory.
const LogDirEnv = "MDINDEX_LOG_DIR"

// DefaultLogDir is where mdindex writes its log: $MDINDEX_LOG_DIR, else
// ~/.mdindex/logs. Without a home directory the temp directory is used.
func DefaultLogDir() string {
	if dir := os.Getenv(LogDirEnv); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".mdindex", "logs")
	}
	return filepath.Join(os.TempDir(), ".mdindex", "logs")
}

// DefaultLogPath is the active log file inside DefaultLogDir.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "mdindex.log")
}

// ResolveLogFile picks the file 'mdindex logs' reads: explicit when given,
// otherwise DefaultLogPath. A missing file explains how to produce one.
func ResolveLogFile(explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = DefaultLogPath()
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("cannot read log file: %w", err)
		}
		if explicit != "" {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return "", fmt.Errorf("no log file at %s; run a command with --debug or start 'mdindex serve' first", path)
	}
	return path, nil
}
