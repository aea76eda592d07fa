// Package preflight checks that a workspace can be indexed and watched
// before any long-running command starts.
//
// The checks cover:
//   - Configuration validity
//   - Write access to the data directory
//   - The configured SQLite driver
//   - Whether another process holds the writer lock
//   - Free disk space for the database
//   - File descriptor and inotify limits for watching
//
// Use the Checker type to run them:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, "/path/to/workspace")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
