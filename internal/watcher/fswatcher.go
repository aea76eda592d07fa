package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/scanner"
)

// FSWatcher is a Synchronizer backed by fsnotify.
type FSWatcher struct {
	root string
	opts Options

	mu      sync.Mutex
	session *session
}

var _ Synchronizer = (*FSWatcher)(nil)

// New creates a watcher for the tree at root. Nothing is watched until Start.
func New(root string, opts Options) *FSWatcher {
	return &FSWatcher{root: root, opts: opts.WithDefaults()}
}

// Start begins watching. See Synchronizer.
func (w *FSWatcher) Start(ctx context.Context) (<-chan Event, error) {
	_ = w.Stop()

	root, err := resolveRoot(w.root)
	if err != nil {
		return nil, mderrors.WatchError("cannot watch workspace", err).WithDetail("root", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, mderrors.WatchError("failed to create file watcher", err).
			WithSuggestion(addWatchHint(err))
	}

	s := &session{
		root:      root,
		filter:    w.opts.Filter,
		fsw:       fsw,
		debouncer: NewDebouncer(w.opts.Debounce),
		dirs:      make(map[string]struct{}),
		out:       make(chan Event, w.opts.BufferSize),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	if err := s.addTree(root, false); err != nil {
		_ = fsw.Close()
		return nil, mderrors.WatchError("failed to watch workspace", err).
			WithDetail("root", root).
			WithSuggestion(addWatchHint(err))
	}

	w.mu.Lock()
	w.session = s
	w.mu.Unlock()

	slog.Debug("watcher started",
		slog.String("root", root),
		slog.Int("directories", len(s.dirs)),
		slog.Duration("debounce", w.opts.Debounce))

	go s.run(ctx)
	return s.out, nil
}

// Stop ends the current session. See Synchronizer.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	s := w.session
	w.session = nil
	w.mu.Unlock()

	if s == nil {
		return nil
	}
	s.stop()
	return nil
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return resolved, nil
}

// session is one Start..Stop lifetime. Everything except stopCh and done is
// owned by the run goroutine once it starts.
type session struct {
	root      string
	filter    *scanner.Filter
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	dirs      map[string]struct{}

	out      chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (s *session) stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.out)
	defer func() { _ = s.fsw.Close() }()
	defer s.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case ev, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			if !s.handle(ctx, ev) {
				return
			}
			if s.debouncer.Immediate() && !s.flush(ctx) {
				return
			}
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			if !s.handleError(ctx, err) {
				return
			}
		case <-s.debouncer.C():
			if !s.flush(ctx) {
				return
			}
		}
	}
}

// handle feeds one native event into the debouncer. It returns false when
// the session should end.
func (s *session) handle(ctx context.Context, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}

	rel, ok := s.rel(ev.Name)
	if !ok {
		return true
	}

	if rel == "." {
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			slog.Warn("workspace root removed or renamed", slog.String("root", s.root))
			return s.scanRequired(ctx)
		}
		return true
	}

	if _, watched := s.dirs[ev.Name]; watched && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
		delete(s.dirs, ev.Name)
		_ = s.fsw.Remove(ev.Name)
		slog.Debug("watched directory moved", slog.String("path", rel))
		return s.scanRequired(ctx)
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Lstat(ev.Name)
		if err != nil {
			return true
		}
		if info.IsDir() {
			if s.filter.SkipDir(rel) {
				return true
			}
			if err := s.addTree(ev.Name, true); err != nil {
				slog.Warn("failed to watch new directory",
					slog.String("path", rel),
					slog.String("error", err.Error()))
			}
			return true
		}
		if info.Mode().IsRegular() && s.filter.Include(rel) {
			s.debouncer.Add(rel, OpCreate)
		}
	case ev.Has(fsnotify.Write):
		if s.filter.Include(rel) {
			s.debouncer.Add(rel, OpModify)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if s.filter.Include(rel) {
			s.debouncer.Add(rel, OpDelete)
		}
	}
	return true
}

func (s *session) handleError(ctx context.Context, err error) bool {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		slog.Warn("watch event queue overflowed, full scan required",
			slog.String("root", s.root),
			slog.String("error_code", mderrors.ErrCodeWatchOverflow))
		return s.scanRequired(ctx)
	}
	slog.Warn("watcher error", slog.String("error", err.Error()))
	return true
}

// flush resolves pending changes against the disk and emits them.
func (s *session) flush(ctx context.Context) bool {
	for _, c := range s.debouncer.Drain() {
		t, ok := s.resolve(c)
		if !ok {
			continue
		}
		if !s.emit(ctx, Event{Type: t, Path: c.Path}) {
			return false
		}
	}
	return true
}

// resolve decides what a coalesced change means now. The file on disk wins
// over the recorded operations, which may be stale by the time of a flush.
func (s *session) resolve(c Change) (EventType, bool) {
	info, err := os.Lstat(filepath.Join(s.root, filepath.FromSlash(c.Path)))
	exists := err == nil && info.Mode().IsRegular()

	switch {
	case exists && c.First == OpCreate:
		return EventCreated, true
	case exists:
		return EventModified, true
	case c.First == OpCreate:
		return 0, false
	default:
		return EventDeleted, true
	}
}

// scanRequired drops pending changes, which a scan covers, and emits
// EventScanRequired.
func (s *session) scanRequired(ctx context.Context) bool {
	s.debouncer.Reset()
	return s.emit(ctx, Event{Type: EventScanRequired})
}

func (s *session) emit(ctx context.Context, ev Event) bool {
	select {
	case s.out <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	}
}

// addTree watches dir and every directory below it that the filter keeps.
// When reportFiles is set, documents already inside are recorded as
// created: they may have landed before the watch was in place.
func (s *session) addTree(dir string, reportFiles bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			slog.Warn("skipping unreadable path", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}

		rel, ok := s.rel(p)
		if !ok {
			return nil
		}

		if d.IsDir() {
			if rel != "." && s.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			if err := s.fsw.Add(p); err != nil {
				if p == dir {
					return err
				}
				slog.Warn("failed to watch directory",
					slog.String("path", rel),
					slog.String("error", err.Error()),
					slog.String("hint", addWatchHint(err)))
				return filepath.SkipDir
			}
			s.dirs[p] = struct{}{}
			return nil
		}

		if reportFiles && d.Type().IsRegular() && s.filter.Include(rel) {
			s.debouncer.Add(rel, OpCreate)
		}
		return nil
	})
}

// rel returns the slash-separated path of name relative to the root.
func (s *session) rel(name string) (string, bool) {
	rel, err := filepath.Rel(s.root, name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
