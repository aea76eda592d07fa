package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/frontmatter"
	"github.com/Aman-CERP/mdindex/internal/watcher"
)

// Watch scans once, then applies changes until ctx is cancelled.
//
// ready, if non-nil, is called once the initial scan is done and the
// synchronizer is running. Cancellation returns nil after the synchronizer
// has stopped. A cancel that lands during a rescan may leave the store
// partially rebuilt until the next Scan. Store failures end the watch and
// are returned.
func (i *Indexer) Watch(ctx context.Context, ready func()) error {
	i.mu.Lock()
	_, err := i.scan(ctx)
	ws := i.current
	i.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	syncer := i.newSynchronizer(i.root, ws.cfg, ws.filter)
	events, err := syncer.Start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = syncer.Stop() }()

	slog.Info("watching workspace", slog.String("root", i.root))
	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return mderrors.New(mderrors.ErrCodeWatchStart, "watch stream ended unexpectedly", nil)
			}
			if err := i.Apply(ctx, ev); err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

// Apply brings the store in line with one change event.
func (i *Indexer) Apply(ctx context.Context, ev watcher.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	slog.Debug("applying change", slog.String("type", ev.Type.String()), slog.String("path", ev.Path))

	switch ev.Type {
	case watcher.EventCreated, watcher.EventModified:
		return i.refresh(ctx, ev.Path)
	case watcher.EventDeleted:
		i.cache.remove(ev.Path)
		return i.store.RemoveDocument(ctx, ev.Path)
	case watcher.EventScanRequired:
		slog.Info("rescanning workspace", slog.String("root", i.root))
		_, err := i.scan(ctx)
		return err
	default:
		return nil
	}
}

// refresh re-reads one document. A file that has vanished or does not
// parse is left for a later event. A file that grew past the size limit
// leaves the index, as it would on a Scan.
func (i *Indexer) refresh(ctx context.Context, rel string) error {
	ws := i.current
	if ws == nil {
		var err error
		if ws, err = i.reload(); err != nil {
			return err
		}
	}

	abs := filepath.Join(i.root, filepath.FromSlash(rel))
	info, err := os.Lstat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if ws.filter.Oversized(info.Size()) {
		slog.Warn("dropping oversized document", slog.String("path", rel), slog.Int64("size", info.Size()))
		i.cache.remove(rel)
		return i.store.RemoveDocument(ctx, rel)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		slog.Debug("document vanished before it could be read", slog.String("path", rel))
		return nil
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		slog.Warn("ignoring unparseable document", mderrors.LogAttrs(mderrors.ParseError(rel, err))...)
		return nil
	}
	i.cache.put(rel, info.Size(), info.ModTime(), doc)

	return i.upsert(ctx, ws, rel, doc)
}
