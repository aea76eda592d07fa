package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/mdindex/internal/output"
	"github.com/Aman-CERP/mdindex/internal/store"
)

func newWatchCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Scan, then keep the index in step with the workspace",
		Long: `Watch performs a full scan and then applies file system changes to the
index as they happen, until interrupted with Ctrl+C.

Each indexed change is printed as it lands:
  + path   document added
  ~ path   document changed
  - path   document removed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			return runWatch(ctx, cmd, root, quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, root string, quiet bool) error {
	ws, err := openWorkspace(ctx, root, true)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	out := output.New(cmd.OutOrStdout())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	ready := make(chan struct{})
	g.Go(func() error {
		defer cancel()
		return ws.indexer().Watch(gctx, func() { close(ready) })
	})
	g.Go(func() error {
		select {
		case <-ready:
		case <-gctx.Done():
			return nil
		}
		return reportChanges(gctx, out, ws.store, root, quiet)
	})

	return g.Wait()
}

// reportChanges prints what each index update added, changed or removed
// until ctx is done.
func reportChanges(ctx context.Context, out *output.Writer, st *store.Store, root string, quiet bool) error {
	updates, err := st.ObserveAllDocuments(ctx)
	if err != nil {
		return err
	}

	var last map[string]store.WorkspaceDocument
	for docs := range updates {
		current := make(map[string]store.WorkspaceDocument, len(docs))
		for _, d := range docs {
			current[d.Path] = d
		}

		if last == nil {
			out.Statusf("👀", "Watching %s (%d documents). Press Ctrl+C to stop.", root, len(docs))
		} else if !quiet {
			printChanges(out.Out(), last, docs, current)
		}
		last = current
	}
	return nil
}

// printChanges writes one line per difference: additions and changes in
// path order, then removals in path order.
func printChanges(w io.Writer, before map[string]store.WorkspaceDocument, docs []store.WorkspaceDocument, after map[string]store.WorkspaceDocument) {
	for _, d := range docs {
		prev, existed := before[d.Path]
		switch {
		case !existed:
			_, _ = fmt.Fprintf(w, "+ %s (%s)\n", d.Path, d.Kind)
		case !sameDocument(prev, d):
			_, _ = fmt.Fprintf(w, "~ %s (%s)\n", d.Path, d.Kind)
		}
	}
	for _, p := range slices.Sorted(maps.Keys(before)) {
		if _, ok := after[p]; !ok {
			_, _ = fmt.Fprintf(w, "- %s\n", p)
		}
	}
}

func sameDocument(a, b store.WorkspaceDocument) bool {
	return a.Kind == b.Kind &&
		a.TitleOrEmpty() == b.TitleOrEmpty() &&
		maps.Equal(a.Properties, b.Properties)
}
