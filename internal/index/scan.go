package index

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/mdindex/internal/async"
	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/frontmatter"
	"github.com/Aman-CERP/mdindex/internal/kind"
	"github.com/Aman-CERP/mdindex/internal/scanner"
	"github.com/Aman-CERP/mdindex/internal/store"
)

// parsed is the outcome of reading one listed file.
type parsed struct {
	doc    frontmatter.Document
	ok     bool
	cached bool
}

// Scan rebuilds the store from the files currently on disk.
//
// Every document is removed and the listed files are upserted in path
// order, so afterwards the store mirrors the workspace exactly. Files that
// cannot be read or parsed are skipped. A store failure aborts the scan and
// leaves the store partially rebuilt; the next Scan repairs it.
func (i *Indexer) Scan(ctx context.Context) (ScanStats, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.scan(ctx)
}

func (i *Indexer) scan(ctx context.Context) (stats ScanStats, err error) {
	start := time.Now()
	i.progress.Begin()
	defer func() {
		switch {
		case err == nil:
			i.progress.SetReady()
		case ctx.Err() == nil:
			i.progress.SetError(err.Error())
		}
	}()

	ws, err := i.reload()
	if err != nil {
		return ScanStats{}, err
	}

	files, err := scanner.List(ctx, i.root, ws.filter)
	if err != nil {
		if ctx.Err() != nil {
			return ScanStats{}, ctx.Err()
		}
		return ScanStats{}, mderrors.New(mderrors.ErrCodeInvalidPath, "failed to list workspace", err).
			WithDetail("root", i.root)
	}

	i.progress.SetStage(async.StageParsing, len(files))
	results, err := i.parseAll(ctx, files, i.workerCount(ws.cfg))
	if err != nil {
		return ScanStats{}, err
	}

	if err := i.store.RemoveAllDocuments(ctx); err != nil {
		return ScanStats{}, err
	}

	i.progress.SetStage(async.StageWriting, len(files))
	stats = ScanStats{Files: len(files)}
	for n, f := range files {
		i.progress.Advance(1)
		r := results[n]
		if r.cached {
			stats.CacheHits++
		}
		if !r.ok {
			stats.Skipped++
			continue
		}
		if err := i.upsert(ctx, ws, f.Path, r.doc); err != nil {
			return stats, err
		}
		stats.Indexed++
	}
	stats.Duration = time.Since(start)

	slog.Info("scan complete",
		slog.String("root", i.root),
		slog.Int("files", stats.Files),
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("cache_hits", stats.CacheHits),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// reload loads the configuration and makes it current.
func (i *Indexer) reload() (*workspace, error) {
	cfg, err := i.loadConfig(i.root)
	if err != nil {
		return nil, err
	}

	filter, err := scanner.NewFilter(cfg.Paths.Exclude, cfg.Paths.Extensions)
	if err != nil {
		return nil, mderrors.ConfigError("invalid paths configuration", err)
	}
	filter.SetMaxSize(i.maxFileSize)

	if !kind.Equal(cfg.Definitions(), i.store.Definitions()) {
		slog.Warn("kind definitions changed since the index was opened; restart to rebuild the schema",
			slog.String("root", i.root))
	}

	ws := &workspace{cfg: cfg, filter: filter, rules: cfg.Rules}
	i.current = ws
	return ws, nil
}

// parseAll reads and parses files concurrently. Results line up with files.
// Only cancellation is an error; per-file failures mark the result not ok.
func (i *Indexer) parseAll(ctx context.Context, files []scanner.FileInfo, workers int) ([]parsed, error) {
	results := make([]parsed, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for n := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[n] = i.parseListed(files[n])
			i.progress.Advance(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (i *Indexer) parseListed(f scanner.FileInfo) parsed {
	if doc, ok := i.cache.get(f.Path, f.Size, f.ModTime); ok {
		return parsed{doc: doc, ok: true, cached: true}
	}

	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		slog.Warn("skipping unreadable document", mderrors.LogAttrs(mderrors.ParseError(f.Path, err))...)
		return parsed{}
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		slog.Warn("skipping unparseable document", mderrors.LogAttrs(mderrors.ParseError(f.Path, err))...)
		i.cache.remove(f.Path)
		return parsed{}
	}
	i.cache.put(f.Path, f.Size, f.ModTime, doc)
	return parsed{doc: doc, ok: true}
}

// upsert resolves kind and title for doc and writes it.
func (i *Indexer) upsert(ctx context.Context, ws *workspace, path string, doc frontmatter.Document) error {
	rec := store.DocumentRecord{
		Path: path,
		Kind: kind.Resolve(doc.Fields, path, ws.rules),
	}
	if t, ok := doc.Title(); ok {
		rec.Title = &t
	}
	return i.store.UpsertDocument(ctx, rec, doc.Fields)
}
