//go:build !linux

package watcher

func addWatchHint(error) string {
	return ""
}
