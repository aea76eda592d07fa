package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registered as "sqlite"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/kind"
)

// DriverPureGo is the default driver name (modernc.org/sqlite).
const DriverPureGo = "sqlite"

// DriverCGO is the mattn/go-sqlite3 driver name, available in cgo builds.
const DriverCGO = "sqlite3"

// Store is the document index. All methods are safe for concurrent use.
// Writes are serialized; each structured operation is one transaction.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	schema *Schema
	closed bool

	obsMu     sync.Mutex
	observers map[*observer]struct{}
	done      chan struct{}
	obsWG     sync.WaitGroup

	rebuilt bool
}

// Open opens (creating if needed) the index at opts.Path and brings its
// schema in line with opts.Definitions.
func Open(ctx context.Context, opts Options) (*Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverPureGo
	}
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	cacheMB := opts.CacheSizeMB
	if cacheMB <= 0 {
		cacheMB = 16
	}

	if opts.Path != "" {
		dir := filepath.Dir(opts.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, mderrors.StorageInitError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
		clearIfCorrupt(driver, opts.Path)
	}

	db, err := sql.Open(driver, dsn(driver, opts.Path, busy))
	if err != nil {
		return nil, mderrors.StorageInitError("failed to open database", err).
			WithDetail("driver", driver).
			WithSuggestion("use driver 'sqlite' unless the binary was built with cgo")
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = %d", -cacheMB*1024),
		"PRAGMA temp_store = MEMORY",
	}
	if opts.Path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, mderrors.StorageInitError("failed to set pragma", err).WithDetail("pragma", pragma)
		}
	}

	schema := NewSchema(kind.Merge(opts.Definitions))
	rebuilt, err := schema.migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, mderrors.StorageInitError("failed to initialize schema", err)
	}
	if rebuilt && opts.Path != "" {
		slog.Info("index schema created",
			slog.String("path", opts.Path),
			slog.Int("extension_tables", len(schema.extensions)))
	}

	return &Store{
		db:        db,
		path:      opts.Path,
		schema:    schema,
		observers: make(map[*observer]struct{}),
		done:      make(chan struct{}),
		rebuilt:   rebuilt,
	}, nil
}

// dsn builds a data source name carrying the pragmas that must hold for
// every connection the pool might open.
func dsn(driver, path string, busy time.Duration) string {
	if path == "" {
		return ":memory:"
	}
	q := url.Values{}
	switch driver {
	case DriverCGO:
		q.Set("_foreign_keys", "on")
		q.Set("_busy_timeout", fmt.Sprint(busy.Milliseconds()))
	default:
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	}
	return "file:" + path + "?" + q.Encode()
}

// clearIfCorrupt removes a database file that fails an integrity check.
// The index is rebuilt from the workspace on the next scan.
func clearIfCorrupt(driver, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	checkErr := func() error {
		db, err := sql.Open(driver, dsn(driver, path, time.Second))
		if err != nil {
			return err
		}
		defer db.Close()

		var result string
		if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
			return err
		}
		if result != "ok" {
			return fmt.Errorf("database corrupted: %s", result)
		}
		return nil
	}()
	if checkErr == nil {
		return
	}

	slog.Warn("index database corrupted, clearing",
		slog.String("path", path),
		slog.String("error", checkErr.Error()),
		slog.String("error_code", mderrors.ErrCodeCorruptIndex))
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove corrupted index file", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}

// Rebuilt reports whether Open created the schema from scratch, meaning the
// index is empty until the next scan.
func (s *Store) Rebuilt() bool {
	return s.rebuilt
}

// Path returns the database file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Definitions returns the resolved kind definitions. They never change
// after Open.
func (s *Store) Definitions() []kind.Definition {
	return s.schema.Definitions()
}

// ExtensionTable returns the extension table for k, if k declares properties.
func (s *Store) ExtensionTable(k kind.Kind) (string, bool) {
	t, ok := s.schema.extension(k)
	return t.name, ok
}

// UpsertDocument inserts or wholesale replaces the document at rec.Path.
//
// The properties table receives every entry of props. When rec.Kind has an
// extension table, its declared properties are mirrored there, with NULL for
// those absent from props. Rows for rec.Path in every other extension table
// are removed, so a kind change leaves nothing behind.
func (s *Store) UpsertDocument(ctx context.Context, rec DocumentRecord, props map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	if err := s.upsert(ctx, rec, props); err != nil {
		return mderrors.StorageError("failed to upsert document", err).WithDetail("path", rec.Path)
	}

	s.notify()
	return nil
}

func (s *Store) upsert(ctx context.Context, rec DocumentRecord, props map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var title sql.NullString
	if rec.Title != nil {
		title = sql.NullString{String: *rec.Title, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO docs (path, kind, title) VALUES (?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET kind = excluded.kind, title = excluded.title`,
		rec.Path, string(rec.Kind), title); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE path = ?", rec.Path); err != nil {
		return fmt.Errorf("failed to clear properties: %w", err)
	}

	if len(props) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO properties (path, key, value) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := stmt.ExecContext(ctx, rec.Path, k, props[k]); err != nil {
				return fmt.Errorf("failed to write property %q: %w", k, err)
			}
		}
	}

	for _, t := range s.schema.extensions {
		if t.kind == rec.Kind {
			continue
		}
		if _, err := tx.ExecContext(ctx, t.deleteSQL, rec.Path); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.name, err)
		}
	}

	if t, ok := s.schema.extension(rec.Kind); ok {
		args := make([]any, 0, len(t.columns)+1)
		args = append(args, rec.Path)
		for _, c := range t.columns {
			if v, ok := props[c]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := tx.ExecContext(ctx, t.insertSQL, args...); err != nil {
			return fmt.Errorf("failed to write %s: %w", t.name, err)
		}
	}

	return tx.Commit()
}

// RemoveDocument deletes the document at path and, by cascade, its
// properties and extension row. Removing an absent path is a no-op.
func (s *Store) RemoveDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM docs WHERE path = ?", path)
	if err != nil {
		return mderrors.StorageError("failed to remove document", err).WithDetail("path", path)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify()
	}
	return nil
}

// RemoveAllDocuments empties the index.
func (s *Store) RemoveAllDocuments(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM docs"); err != nil {
		return mderrors.StorageError("failed to remove all documents", err)
	}
	s.notify()
	return nil
}

// Close stops all observers and closes the database. It is idempotent.
func (s *Store) Close() error {
	s.obsMu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.obsMu.Unlock()
	s.obsWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	if err := s.db.Close(); err != nil {
		return mderrors.StorageError("failed to close database", err)
	}
	return nil
}

func errClosed() error {
	return mderrors.StorageError("store is closed", nil)
}
