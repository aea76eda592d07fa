package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/config"
	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/index"
	"github.com/Aman-CERP/mdindex/internal/store"
)

// workspace is an opened index for one workspace root.
type workspace struct {
	root  string
	cfg   *config.Config
	store *store.Store
	// lock is held for the lifetime of a writing command; nil for readers.
	lock *store.WriterLock
}

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// resolveRoot picks the workspace: a positional directory, then --root,
// then the nearest enclosing project.
func resolveRoot(args []string) (string, error) {
	dir := rootFlag
	if len(args) > 0 {
		dir = args[0]
	}

	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", mderrors.InternalError("failed to get current directory", err)
		}
		return config.FindProjectRoot(cwd)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", mderrors.New(mderrors.ErrCodeInvalidPath, "failed to resolve workspace root", err).
			WithDetail("root", dir)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", mderrors.New(mderrors.ErrCodeInvalidPath, "workspace root is not a directory", err).
			WithDetail("root", abs)
	}
	return abs, nil
}

// openWorkspace loads the configuration and opens the index. Writers take
// the workspace's writer lock first.
func openWorkspace(ctx context.Context, root string, write bool) (*workspace, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, mderrors.ConfigError("failed to load configuration", err).
			WithDetail("root", root).
			WithSuggestion("check .mdindex.yaml; 'mdindex config show' prints the effective settings")
	}

	ws := &workspace{root: root, cfg: cfg}
	if write {
		ws.lock = store.NewWriterLock(config.DataDir(root))
		if err := ws.lock.TryLock(); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, storeOptions(root, cfg))
	if err != nil {
		if ws.lock != nil {
			_ = ws.lock.Unlock()
		}
		return nil, err
	}
	ws.store = st

	slog.Debug("workspace opened",
		slog.String("root", root),
		slog.String("database", st.Path()),
		slog.Bool("writer", write),
		slog.Bool("rebuilt", st.Rebuilt()))
	return ws, nil
}

func storeOptions(root string, cfg *config.Config) store.Options {
	return store.Options{
		Path:        cfg.StorePath(root),
		Driver:      cfg.Store.Driver,
		Definitions: cfg.Kinds,
		CacheSizeMB: cfg.Store.CacheSizeMB,
	}
}

// Close closes the index and releases the writer lock.
func (w *workspace) Close() error {
	err := w.store.Close()
	if w.lock != nil {
		err = errors.Join(err, w.lock.Unlock())
	}
	return err
}

func (w *workspace) indexer(opts ...index.Option) *index.Indexer {
	opts = append([]index.Option{index.WithParseCache(w.cfg.Index.ParseCacheSize)}, opts...)
	return index.New(w.root, w.store, opts...)
}

// ensureIndexed fills a freshly created index before a read command uses it.
// When another process holds the writer lock it is left to that process.
func (w *workspace) ensureIndexed(ctx context.Context) error {
	if !w.store.Rebuilt() {
		return nil
	}

	lock := w.lock
	if lock == nil {
		lock = store.NewWriterLock(config.DataDir(w.root))
		if err := lock.TryLock(); err != nil {
			if mderrors.GetCode(err) == mderrors.ErrCodeIndexLocked {
				slog.Debug("index is being built by another process", slog.String("root", w.root))
				return nil
			}
			return err
		}
		defer func() { _ = lock.Unlock() }()
	}

	stats, err := w.indexer().Scan(ctx)
	if err != nil {
		return err
	}
	slog.Debug("index built before read", slog.Int("documents", stats.Indexed))
	return nil
}

// documentPath turns a command-line path into the index's relative,
// slash-separated form. Absolute paths must lie inside root.
func documentPath(root, p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return "", mderrors.New(mderrors.ErrCodeInvalidPath, "path is outside the workspace", err).
				WithDetail("path", p)
		}
		p = rel
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", mderrors.New(mderrors.ErrCodeInvalidPath, "path is outside the workspace", nil).
			WithDetail("path", p)
	}
	return clean, nil
}
