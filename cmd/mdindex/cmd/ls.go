package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/kind"
	"github.com/Aman-CERP/mdindex/internal/output"
	"github.com/Aman-CERP/mdindex/internal/store"
	"github.com/Aman-CERP/mdindex/internal/ui"
)

func newLsCmd() *cobra.Command {
	var kindFilter string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List indexed documents",
		Long: `List the documents in the index, ordered by path.

An index that does not exist yet is built first.`,
		Example: `  mdindex ls
  mdindex ls --kind issue
  mdindex ls --json | jq '.[].path'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			return runLs(cmd.Context(), cmd, root, kindFilter, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&kindFilter, "kind", "k", "", "Only list documents of this kind")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output documents as JSON")

	return cmd
}

func runLs(ctx context.Context, cmd *cobra.Command, root, kindFilter string, jsonOutput bool) error {
	ws, err := openWorkspace(ctx, root, false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.ensureIndexed(ctx); err != nil {
		return err
	}

	var docs []store.WorkspaceDocument
	if k := strings.TrimSpace(kindFilter); k != "" {
		docs, err = ws.store.DocumentsOfKind(ctx, kind.Kind(k))
	} else {
		docs, err = ws.store.AllDocuments(ctx)
	}
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		if docs == nil {
			docs = []store.WorkspaceDocument{}
		}
		return out.JSON(docs)
	}
	if len(docs) == 0 && out.Styled() {
		out.Status("📭", "No documents indexed")
		return nil
	}
	return ui.DocumentsTable(docs).Render(out.Out(), out.Styled())
}
