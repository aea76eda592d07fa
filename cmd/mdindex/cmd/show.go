package cmd

import (
	"context"

	"github.com/spf13/cobra"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/output"
	"github.com/Aman-CERP/mdindex/internal/ui"
)

func newShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Show one document and its properties",
		Long: `Show the kind, title and frontmatter properties the index holds for a
document. The path is relative to the workspace root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			return runShow(cmd.Context(), cmd, root, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the document as JSON")

	return cmd
}

func runShow(ctx context.Context, cmd *cobra.Command, root, arg string, jsonOutput bool) error {
	rel, err := documentPath(root, arg)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, root, false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.ensureIndexed(ctx); err != nil {
		return err
	}

	doc, err := ws.store.DocumentAt(ctx, rel)
	if err != nil {
		return err
	}
	if doc == nil {
		return mderrors.New(mderrors.ErrCodeFileNotFound, "document not found", nil).
			WithDetail("path", rel).
			WithSuggestion("run 'mdindex ls' to see indexed paths")
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		return out.JSON(doc)
	}
	return ui.DocumentTable(*doc).Render(out.Out(), out.Styled())
}
