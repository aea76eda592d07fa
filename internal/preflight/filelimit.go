package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/Aman-CERP/mdindex/internal/config"
	"github.com/Aman-CERP/mdindex/internal/scanner"
)

// MinFileDescriptors is the minimum recommended file descriptor limit.
const MinFileDescriptors = 1024

// CheckFileDescriptors checks if the file descriptor limit is sufficient.
// A low limit only matters for watching, so it is a warning.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name: "file_descriptors",
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 10240' to increase the limit"
		return result
	}

	result.Status = StatusPass
	return result
}

// CheckWatchCapacity compares the number of directories the watcher would
// register with the inotify watch limit. Systems without inotify pass.
func (c *Checker) CheckWatchCapacity(ctx context.Context, root string, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name: "watch_capacity",
	}

	filter, err := scanner.NewFilter(cfg.Paths.Exclude, cfg.Paths.Extensions)
	if err != nil {
		result.Status = StatusFail
		result.Required = true
		result.Message = err.Error()
		return result
	}
	dirs, err := countWatchDirs(ctx, root, filter.SkipDir)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to walk workspace: %v", err)
		return result
	}

	limit, ok := c.inotifyLimit()
	if !ok {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%d director(ies) to watch", dirs)
		return result
	}

	result.Message = fmt.Sprintf("%d director(ies) to watch (inotify limit: %d)", dirs, limit)
	if dirs > limit {
		result.Status = StatusWarn
		result.Details = "Raise fs.inotify.max_user_watches or exclude directories in paths.exclude"
		return result
	}
	result.Status = StatusPass
	return result
}

func (c *Checker) inotifyLimit() (int, bool) {
	data, err := os.ReadFile(filepath.Join(c.procPrefix, "sys", "fs", "inotify", "max_user_watches"))
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return n, true
}
