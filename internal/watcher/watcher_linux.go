//go:build linux

package watcher

import (
	"errors"
	"syscall"
)

// addWatchHint explains how to recover from a failed inotify watch.
func addWatchHint(err error) string {
	if errors.Is(err, syscall.ENOSPC) {
		return "inotify watch limit reached; raise it with 'sysctl fs.inotify.max_user_watches=524288'"
	}
	if errors.Is(err, syscall.EMFILE) {
		return "inotify instance limit reached; raise fs.inotify.max_user_instances"
	}
	return ""
}
