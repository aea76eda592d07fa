package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/output"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a SQL statement that modifies the index",
		Long: `Run a SQL statement against the index and report the number of rows it
changed.

The next scan replaces document rows, so changes to docs, properties and
kind tables last only until the workspace is rescanned. Tables you create
yourself are kept.`,
		Example: `  mdindex exec "CREATE TABLE IF NOT EXISTS reviews(path TEXT PRIMARY KEY, reviewer TEXT)"
  mdindex exec "DELETE FROM docs WHERE kind = 'draft'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			return runExec(cmd.Context(), cmd, root, args[0])
		},
	}

	return cmd
}

func runExec(ctx context.Context, cmd *cobra.Command, root, text string) error {
	ws, err := openWorkspace(ctx, root, true)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	n, err := ws.store.RawExecute(ctx, text)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if n == 1 {
		out.Success("1 row affected")
	} else {
		out.Successf("%d rows affected", n)
	}
	return nil
}
