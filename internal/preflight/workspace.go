package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/mdindex/internal/config"
	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/store"
)

// CheckConfig loads the merged configuration for root.
func (c *Checker) CheckConfig(root string) (*config.Config, CheckResult) {
	result := CheckResult{
		Name:     "config",
		Required: true,
	}

	cfg, err := config.Load(root)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Fix " + config.ProjectFileName + " or run 'mdindex config show --source project'"
		return nil, result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d kind(s), %d rule(s)", len(cfg.Definitions()), len(cfg.Rules))
	if p := config.ProjectFile(root); p != "" {
		result.Details = p
	} else {
		result.Details = "no project file; using defaults"
	}
	return cfg, result
}

// CheckWritePermissions checks that the data directory can hold the index.
func (c *Checker) CheckWritePermissions(dataDir string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Required: true,
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dataDir, err)
		return result
	}

	f, err := os.CreateTemp(dataDir, ".preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	result.Details = dataDir
	return result
}

// CheckDriver opens an in-memory database with the configured driver.
func (c *Checker) CheckDriver(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "sqlite_driver",
		Required: true,
	}
	driver := cfg.Store.Driver
	if driver == "" {
		driver = store.DriverPureGo
	}

	st, err := store.Open(ctx, store.Options{Driver: driver, Definitions: cfg.Definitions()})
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", driver, err)
		if driver != store.DriverPureGo {
			result.Details = "Set store.driver to \"" + store.DriverPureGo + "\" or build with CGO_ENABLED=1"
		}
		return result
	}
	_ = st.Close()

	result.Status = StatusPass
	result.Message = driver
	return result
}

// CheckWriterLock reports whether another process is writing the index.
func (c *Checker) CheckWriterLock(dataDir string) CheckResult {
	result := CheckResult{
		Name: "writer_lock",
	}

	lock := store.NewWriterLock(dataDir)
	err := lock.TryLock()
	var ie *mderrors.IndexError
	switch {
	case err == nil:
		_ = lock.Unlock()
		result.Status = StatusPass
		result.Message = "free"
	case errors.As(err, &ie) && ie.Code == mderrors.ErrCodeIndexLocked:
		result.Status = StatusWarn
		result.Message = "held by another process; commands will read only"
		result.Details = ie.Suggestion
	default:
		result.Status = StatusFail
		result.Message = err.Error()
	}
	return result
}

func countWatchDirs(ctx context.Context, root string, skip func(rel string) bool) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		if skip(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		n++
		return nil
	})
	return n, err
}
