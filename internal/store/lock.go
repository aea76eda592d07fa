package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
)

// LockFileName is the writer lock inside the data directory.
const LockFileName = "index.lock"

// WriterLock keeps two processes from writing the same index. Readers do
// not take it.
type WriterLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewWriterLock returns the lock for the data directory dir.
func NewWriterLock(dir string) *WriterLock {
	p := filepath.Join(dir, LockFileName)
	return &WriterLock{path: p, flock: flock.New(p)}
}

// TryLock takes the lock without waiting. A lock held elsewhere is reported
// as an ERR_209_INDEX_LOCKED error.
func (l *WriterLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return mderrors.New(mderrors.ErrCodeIndexLocked, "index is in use by another process", nil).
			WithDetail("lock", l.path).
			WithSuggestion("stop the running 'mdindex watch' or 'mdindex serve' for this workspace")
	}

	l.locked = true
	return nil
}

// Unlock releases the lock. Calling it when not locked is a no-op.
func (l *WriterLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *WriterLock) Path() string {
	return l.path
}
