package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/output"
)

// scanResult is the --json form of a scan.
type scanResult struct {
	Root       string `json:"root"`
	Database   string `json:"database"`
	Files      int    `json:"files"`
	Indexed    int    `json:"indexed"`
	Skipped    int    `json:"skipped"`
	CacheHits  int    `json:"cache_hits"`
	DurationMS int64  `json:"duration_ms"`
}

func newScanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Rebuild the index from the workspace",
		Long: `Scan lists every document in the workspace, parses its frontmatter and
replaces the index contents with the result.

Files whose frontmatter cannot be parsed are skipped and logged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			return runScan(ctx, cmd, root, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output scan results as JSON")

	return cmd
}

func runScan(ctx context.Context, cmd *cobra.Command, root string, jsonOutput bool) error {
	ws, err := openWorkspace(ctx, root, true)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	stats, err := ws.indexer().Scan(ctx)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		return out.JSON(scanResult{
			Root:       root,
			Database:   ws.store.Path(),
			Files:      stats.Files,
			Indexed:    stats.Indexed,
			Skipped:    stats.Skipped,
			CacheHits:  stats.CacheHits,
			DurationMS: stats.Duration.Milliseconds(),
		})
	}

	out.Successf("Indexed %d documents in %s", stats.Indexed, stats.Duration.Round(time.Millisecond))
	if stats.Skipped > 0 {
		out.Warningf("%d files skipped (run with --debug for details)", stats.Skipped)
	}
	out.Statusf("📁", "Index: %s", ws.store.Path())
	return nil
}
