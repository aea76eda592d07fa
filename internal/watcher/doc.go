// Package watcher reports changes to workspace documents as they happen.
//
// FSWatcher watches a directory tree with fsnotify, drops paths outside the
// document set, and coalesces bursts of native events per path before
// emitting them. When it cannot say precisely what changed (event queue
// overflow, a renamed or removed directory) it emits EventScanRequired and
// the consumer rebuilds from a full scan.
//
// Usage:
//
//	w := watcher.New(root, watcher.DefaultOptions())
//	events, err := w.Start(ctx)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	for ev := range events {
//	    switch ev.Type {
//	    case watcher.EventCreated, watcher.EventModified:
//	        // re-read ev.Path
//	    case watcher.EventDeleted:
//	        // drop ev.Path
//	    case watcher.EventScanRequired:
//	        // rebuild everything
//	    }
//	}
package watcher
