package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/mdindex/internal/output"
	"github.com/Aman-CERP/mdindex/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and declared kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), cmd, root, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, root string, jsonOutput bool) error {
	ws, err := openWorkspace(ctx, root, false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.ensureIndexed(ctx); err != nil {
		return err
	}

	info, err := statusInfo(ctx, ws)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	r := ui.NewStatusRenderer(out.Out(), !out.Styled())
	if jsonOutput {
		return r.RenderJSON(info)
	}
	return r.Render(info)
}

func statusInfo(ctx context.Context, ws *workspace) (ui.StatusInfo, error) {
	stats, err := ws.store.Stats(ctx)
	if err != nil {
		return ui.StatusInfo{}, err
	}

	info := ui.StatusInfo{
		Root:         ws.root,
		DatabasePath: ws.store.Path(),
		Documents:    stats.Documents,
		Properties:   stats.Properties,
		ByKind:       make(map[string]int, len(stats.ByKind)),
	}
	if fi, err := os.Stat(ws.store.Path()); err == nil {
		info.DatabaseSize = fi.Size()
		info.LastModified = fi.ModTime()
	}
	// WAL mode keeps recent writes in the -wal file.
	if fi, err := os.Stat(ws.store.Path() + "-wal"); err == nil {
		info.DatabaseSize += fi.Size()
		if fi.ModTime().After(info.LastModified) {
			info.LastModified = fi.ModTime()
		}
	}
	for k, n := range stats.ByKind {
		info.ByKind[k.String()] = n
	}

	for _, d := range ws.store.Definitions() {
		table, _ := ws.store.ExtensionTable(d.Kind)
		props := d.Properties
		if props == nil {
			props = []string{}
		}
		info.Kinds = append(info.Kinds, ui.KindInfo{
			Kind:       d.Kind.String(),
			Properties: props,
			Table:      table,
		})
	}
	return info, nil
}
