package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/output"
	"github.com/Aman-CERP/mdindex/internal/preflight"
)

// errDoctorFailed is returned when a required check fails.
var errDoctorFailed = errors.New("workspace check failed")

// doctorResult is the --json form of a workspace check.
type doctorResult struct {
	Root   string                  `json:"root"`
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor [dir]",
		Short: "Check that a workspace can be indexed and watched",
		Long: `Run diagnostics for a workspace.

Checks:
  - Configuration loads and validates
  - The data directory is writable
  - The configured SQLite driver is available
  - No other process holds the writer lock
  - Disk space (20MB minimum)
  - File descriptor and inotify watch limits

Lock, file descriptor and watch limit problems are warnings.`,
		Example: `  # Check the current workspace
  mdindex doctor

  # JSON output for scripting
  mdindex doctor --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(ctx, root)

			if jsonOutput {
				if err := output.New(cmd.OutOrStdout()).JSON(doctorResult{
					Root:   root,
					Status: checker.SummaryStatus(results),
					Checks: results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errDoctorFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for passing checks")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
