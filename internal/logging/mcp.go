package logging

import (
	"log/slog"
)

// SetupServeMode installs a file-only default logger for the serve command.
// Nothing may be written to stdout or stderr while the MCP stream is open.
func SetupServeMode(level string, filePath string) (func(), error) {
	if filePath == "" {
		filePath = DefaultLogPath()
	}
	cfg := Config{
		Level:         level,
		FilePath:      filePath,
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("serve mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
