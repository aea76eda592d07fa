package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/output"
	"github.com/Aman-CERP/mdindex/internal/ui"
)

// queryResult is the --json form of a query.
type queryResult struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Count   int                 `json:"count"`
}

func newQueryCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL query against the index",
		Long: `Run a read-only SQL statement against the index and print the rows it
returns. Statements that modify the index are rejected; use 'mdindex exec'.

Tables:
  docs(path, kind, title)           one row per document
  properties(path, key, value)      one row per frontmatter field
  kind_<name>(path, <properties>)   one table per declared kind

'mdindex status' lists the table of each declared kind. NULL values are
omitted from JSON rows and shown empty in tables.`,
		Example: `  mdindex query "SELECT kind, count(*) FROM docs GROUP BY kind"
  mdindex query "SELECT path FROM properties WHERE key = 'status' AND value = 'open'" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), cmd, root, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output rows as JSON")

	return cmd
}

func runQuery(ctx context.Context, cmd *cobra.Command, root, text string, jsonOutput bool) error {
	ws, err := openWorkspace(ctx, root, false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.ensureIndexed(ctx); err != nil {
		return err
	}

	rows, err := ws.store.RawQuery(ctx, text)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		result := queryResult{Columns: []string{}, Rows: make([]map[string]string, 0, len(rows)), Count: len(rows)}
		if len(rows) > 0 {
			result.Columns = rows[0].ResultColumns
		}
		for _, r := range rows {
			result.Rows = append(result.Rows, r.Values)
		}
		return out.JSON(result)
	}
	if len(rows) == 0 {
		if out.Styled() {
			out.Status("📭", "No rows")
		}
		return nil
	}
	return ui.RowsTable(rows).Render(out.Out(), out.Styled())
}
