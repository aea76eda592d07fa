package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// List walks root and returns every document accepted by f, sorted by path.
//
// Unreadable entries are skipped. A symlinked root is resolved first; links
// below the root are never followed, so a document is indexed once under its
// real location.
func List(ctx context.Context, root string, f *Filter) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	// WalkDir does not descend into a root that is itself a link.
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Debug("skipping unreadable path", slog.String("path", p), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if f.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !f.Include(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if f.Oversized(fi.Size()) {
			slog.Warn("skipping oversized document", slog.String("path", rel), slog.Int64("size", fi.Size()))
			return nil
		}

		files = append(files, FileInfo{
			Path:    rel,
			AbsPath: p,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
