// Package index keeps the store in step with the workspace on disk.
//
// Scan rebuilds the store from a full listing. Watch runs one Scan and then
// applies Synchronizer events as they arrive, falling back to another Scan
// whenever the Synchronizer reports that incremental events were lost.
package index

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Aman-CERP/mdindex/internal/async"
	"github.com/Aman-CERP/mdindex/internal/config"
	"github.com/Aman-CERP/mdindex/internal/kind"
	"github.com/Aman-CERP/mdindex/internal/scanner"
	"github.com/Aman-CERP/mdindex/internal/store"
	"github.com/Aman-CERP/mdindex/internal/watcher"
)

// DefaultParseCacheSize is the number of parsed documents kept between scans.
const DefaultParseCacheSize = 4096

// DocumentStore is the write side of the index. *store.Store implements it.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, rec store.DocumentRecord, props map[string]string) error
	RemoveDocument(ctx context.Context, path string) error
	RemoveAllDocuments(ctx context.Context) error
	// Definitions returns the kinds the store's schema was built for.
	Definitions() []kind.Definition
}

// ConfigLoader loads the configuration for the workspace at root.
type ConfigLoader func(root string) (*config.Config, error)

// SynchronizerFactory builds the change source used by Watch.
type SynchronizerFactory func(root string, cfg *config.Config, filter *scanner.Filter) watcher.Synchronizer

// Option configures an Indexer.
type Option func(*Indexer)

// WithConfigLoader replaces config.Load.
func WithConfigLoader(load ConfigLoader) Option {
	return func(i *Indexer) { i.loadConfig = load }
}

// WithSynchronizerFactory replaces the fsnotify-backed watcher.
func WithSynchronizerFactory(f SynchronizerFactory) Option {
	return func(i *Indexer) { i.newSynchronizer = f }
}

// WithWorkers bounds how many files Scan parses at once. Zero or less uses
// the configured index.workers value.
func WithWorkers(n int) Option {
	return func(i *Indexer) { i.workers = n }
}

// WithParseCache sets the parse cache capacity. Zero or less disables it.
func WithParseCache(size int) Option {
	return func(i *Indexer) { i.cacheSize = size }
}

// WithMaxFileSize sets the size above which a file is not indexed. Zero or
// less uses scanner.DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(i *Indexer) { i.maxFileSize = n }
}

// WithProgress reports each scan's stages to p.
func WithProgress(p *async.Progress) Option {
	return func(i *Indexer) { i.progress = p }
}

// ScanStats reports the outcome of a Scan.
type ScanStats struct {
	// Files is the number of documents listed.
	Files int
	// Indexed is the number of documents written to the store.
	Indexed int
	// Skipped is the number of documents that could not be read or parsed.
	Skipped int
	// CacheHits is the number of documents reused from the parse cache.
	CacheHits int
	// Duration is the wall time of the scan.
	Duration time.Duration
}

// Indexer composes listing, parsing, kind resolution and the store.
type Indexer struct {
	root  string
	store DocumentStore

	loadConfig      ConfigLoader
	newSynchronizer SynchronizerFactory
	workers         int
	cacheSize       int
	maxFileSize     int64
	cache           *parseCache
	progress        *async.Progress

	// mu serializes Scan and event application so writes reach the store
	// in the order they were decided.
	mu      sync.Mutex
	current *workspace
}

// workspace is the configuration in force since the last Scan.
type workspace struct {
	cfg    *config.Config
	filter *scanner.Filter
	rules  []kind.Rule
}

// New creates an Indexer for the workspace at root writing to st.
func New(root string, st DocumentStore, opts ...Option) *Indexer {
	i := &Indexer{
		root:            root,
		store:           st,
		loadConfig:      config.Load,
		newSynchronizer: defaultSynchronizer,
		cacheSize:       DefaultParseCacheSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.cache = newParseCache(i.cacheSize)
	return i
}

// Root returns the workspace directory.
func (i *Indexer) Root() string {
	return i.root
}

func (i *Indexer) workerCount(cfg *config.Config) int {
	switch {
	case i.workers > 0:
		return i.workers
	case cfg.Index.Workers > 0:
		return cfg.Index.Workers
	default:
		return runtime.NumCPU()
	}
}

func defaultSynchronizer(root string, cfg *config.Config, filter *scanner.Filter) watcher.Synchronizer {
	return watcher.New(root, watcher.Options{
		Filter:     filter,
		Debounce:   cfg.DebounceDuration(),
		BufferSize: cfg.Watch.BufferSize,
	})
}
