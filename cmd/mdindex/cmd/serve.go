package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/mdindex/internal/async"
	"github.com/Aman-CERP/mdindex/internal/config"
	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/index"
	"github.com/Aman-CERP/mdindex/internal/logging"
	mdmcp "github.com/Aman-CERP/mdindex/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the index to MCP clients over stdio",
		Long: `Serve exposes the index as MCP tools on stdin/stdout and keeps it current
by watching the workspace in the background.

Tools: list_documents, get_document, query_documents (read-only SQL),
index_status.

Nothing but the MCP stream is written to stdout; logs go to
~/.mdindex/logs/mdindex.log. When another process already writes the index
(for example 'mdindex watch'), serve answers from it without watching.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			return runServe(ctx, root, noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Serve the index as is without watching the workspace")

	return cmd
}

func runServe(ctx context.Context, root string, noWatch bool) error {
	level := "info"
	if cfg, err := config.Load(root); err == nil {
		level = cfg.LogLevel
	}
	if debugMode {
		// Replace the --debug logger: it also writes to stderr.
		_ = stopLogging(nil, nil)
		level = "debug"
	}
	cleanup, err := logging.SetupServeMode(level, "")
	if err != nil {
		return err
	}
	defer cleanup()

	ws, watching, err := openServeWorkspace(ctx, root, !noWatch)
	if err != nil {
		slog.Error("failed to open index", mderrors.LogAttrs(err)...)
		return err
	}
	defer func() { _ = ws.Close() }()

	if !watching {
		if err := ws.ensureIndexed(ctx); err != nil {
			return err
		}
	}

	srv := mdmcp.NewServer(ws.store, root)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if watching {
		progress := async.NewProgress()
		srv.SetProgress(progress)
		g.Go(func() error {
			defer srv.SetWatching(false)
			return ws.indexer(index.WithProgress(progress)).Watch(gctx, func() { srv.SetWatching(true) })
		})
	}
	g.Go(func() error {
		// A disconnected client ends the watch too.
		defer cancel()
		return srv.Serve(gctx)
	})

	return g.Wait()
}

// openServeWorkspace opens the index for writing when watching is wanted,
// falling back to read-only when another process holds the writer lock.
func openServeWorkspace(ctx context.Context, root string, watch bool) (*workspace, bool, error) {
	if watch {
		ws, err := openWorkspace(ctx, root, true)
		if err == nil {
			return ws, true, nil
		}
		if mderrors.GetCode(err) != mderrors.ErrCodeIndexLocked {
			return nil, false, err
		}
		slog.Warn("index is written by another process; serving without watching", mderrors.LogAttrs(err)...)
	}

	ws, err := openWorkspace(ctx, root, false)
	return ws, false, err
}
