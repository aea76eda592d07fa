// Package cmd provides the CLI commands for mdindex.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/logging"
	"github.com/Aman-CERP/mdindex/internal/profiling"
	"github.com/Aman-CERP/mdindex/pkg/version"
)

// Global flags
var (
	debugMode      bool
	rootFlag       string
	loggingCleanup func()

	profileOpts    profiling.Options
	profileSession *profiling.Session
)

// NewRootCmd creates the root command for the mdindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdindex",
		Short: "Index Markdown workspaces into a queryable SQLite database",
		Long: `mdindex keeps a SQLite index of the Markdown documents in a workspace.

Every document is registered with its kind, title and frontmatter fields.
Kinds declared in .mdindex.yaml get their own table with one column per
property, so they can be queried with plain SQL.

Run 'mdindex scan' to build the index, 'mdindex watch' to keep it current,
or 'mdindex serve' to expose it to MCP clients.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("mdindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.mdindex/logs/")
	cmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Workspace root (default: nearest directory with .mdindex.yaml or .git)")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newExecCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(cmd *cobra.Command, args []string) error {
	if err := startLogging(cmd, args); err != nil {
		return err
	}
	if !profileOpts.Enabled() {
		return nil
	}
	s, err := profiling.Start(profileOpts)
	if err != nil {
		return err
	}
	profileSession = s
	slog.Debug("Profiling started",
		slog.String("cpu", profileOpts.CPU),
		slog.String("heap", profileOpts.Heap),
		slog.String("trace", profileOpts.Trace))
	return nil
}

func stopProfilingAndLogging(cmd *cobra.Command, args []string) error {
	var err error
	if profileSession != nil {
		err = profileSession.Stop()
		profileSession = nil
	}
	_ = stopLogging(cmd, args)
	return err
}

// startLogging installs the default logger. Without --debug, warnings and
// errors go to stderr; MDINDEX_LOG_LEVEL can lower the threshold.
func startLogging(cmd *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("command", cmd.CommandPath()),
			slog.String("version", version.Version))
		return nil
	}

	level := "warn"
	if v := os.Getenv("MDINDEX_LOG_LEVEL"); v != "" {
		level = v
	}
	slog.SetDefault(logging.NewWriterLogger(cmd.ErrOrStderr(), logging.ParseLevel(level)))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints any error for the terminal.
func Execute() error {
	return execute(NewRootCmd(), os.Stderr)
}

// Process exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInvalid     = 2   // rejected configuration, query or arguments
	ExitIndexLocked = 3   // another process is writing the index
	ExitInterrupted = 130 // Ctrl+C
)

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	var ie *mderrors.IndexError
	if !errors.As(err, &ie) {
		return ExitFailure
	}
	switch {
	case ie.Code == mderrors.ErrCodeIndexLocked:
		return ExitIndexLocked
	case ie.Category == mderrors.CategoryConfig, ie.Category == mderrors.CategoryValidation:
		return ExitInvalid
	default:
		return ExitFailure
	}
}

func execute(cmd *cobra.Command, stderr io.Writer) error {
	err := cmd.Execute()
	switch {
	case err == nil:
	case mderrors.GetCode(err) != "":
		_, _ = fmt.Fprint(stderr, mderrors.FormatForCLI(err))
	default:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	// PersistentPostRunE does not run when RunE fails.
	_ = stopProfilingAndLogging(cmd, nil)
	return err
}
