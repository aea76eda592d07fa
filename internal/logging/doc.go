// Package logging configures log/slog for mdindex.
//
// Without --debug, warnings and errors go to stderr as text. With --debug,
// JSON logs at debug level are also written to ~/.mdindex/logs/mdindex.log
// with size-based rotation. The serve command logs to the file only because
// stdout carries the MCP stream.
package logging
