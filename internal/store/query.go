package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/kind"
)

// AllDocuments returns every document with its properties, ordered by path.
func (s *Store) AllDocuments(ctx context.Context) ([]WorkspaceDocument, error) {
	return s.documents(ctx, nil)
}

// DocumentsOfKind returns the documents of kind k, ordered by path.
func (s *Store) DocumentsOfKind(ctx context.Context, k kind.Kind) ([]WorkspaceDocument, error) {
	return s.documents(ctx, &k)
}

// DocumentAt returns the document at path, or nil if there is none.
func (s *Store) DocumentAt(ctx context.Context, path string) (*WorkspaceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	var doc *WorkspaceDocument
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var (
			k     string
			title sql.NullString
		)
		err := tx.QueryRowContext(ctx, "SELECT kind, title FROM docs WHERE path = ?", path).Scan(&k, &title)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		props, err := scanProperties(tx.QueryContext(ctx,
			"SELECT path, key, value FROM properties WHERE path = ?", path))
		if err != nil {
			return err
		}

		doc = &WorkspaceDocument{
			DocumentRecord: DocumentRecord{Path: path, Kind: kind.Kind(k), Title: nullTitle(title)},
			Properties:     orEmpty(props[path]),
		}
		return nil
	})
	if err != nil {
		return nil, mderrors.StorageError("failed to read document", err).WithDetail("path", path)
	}
	return doc, nil
}

func (s *Store) documents(ctx context.Context, k *kind.Kind) ([]WorkspaceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	var docs []WorkspaceDocument
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		docs, err = hydrate(ctx, tx, k)
		return err
	})
	if err != nil {
		return nil, mderrors.StorageError("failed to read documents", err)
	}
	return docs, nil
}

// readTx runs fn in a transaction so multi-statement reads see one snapshot.
func (s *Store) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func hydrate(ctx context.Context, tx *sql.Tx, k *kind.Kind) ([]WorkspaceDocument, error) {
	docQuery := "SELECT path, kind, title FROM docs ORDER BY path"
	propQuery := "SELECT path, key, value FROM properties"
	var args []any
	if k != nil {
		docQuery = "SELECT path, kind, title FROM docs WHERE kind = ? ORDER BY path"
		propQuery = "SELECT p.path, p.key, p.value FROM properties p JOIN docs d ON d.path = p.path WHERE d.kind = ?"
		args = []any{string(*k)}
	}

	rows, err := tx.QueryContext(ctx, docQuery, args...)
	if err != nil {
		return nil, err
	}
	docs := []WorkspaceDocument{}
	for rows.Next() {
		var (
			d     WorkspaceDocument
			kd    string
			title sql.NullString
		)
		if err := rows.Scan(&d.Path, &kd, &title); err != nil {
			_ = rows.Close()
			return nil, err
		}
		d.Kind = kind.Kind(kd)
		d.Title = nullTitle(title)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	props, err := scanProperties(tx.QueryContext(ctx, propQuery, args...))
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Properties = orEmpty(props[docs[i].Path])
	}
	return docs, nil
}

// scanProperties groups (path, key, value) rows by path.
func scanProperties(rows *sql.Rows, err error) (map[string]map[string]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var path, key, value string
		if err := rows.Scan(&path, &key, &value); err != nil {
			return nil, err
		}
		m := out[path]
		if m == nil {
			m = make(map[string]string)
			out[path] = m
		}
		m[key] = value
	}
	return out, rows.Err()
}

// RawQuery runs a read statement against the index and returns every row
// with values rendered as text. The connection is switched to query_only
// for the statement, so writes fail with ERR_402 and observers never miss a
// change. Failures leave the store usable.
func (s *Store) RawQuery(ctx context.Context, text string, args ...any) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	// Pin the single connection so no other statement runs in query_only.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, queryError(ctx, err, text)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, queryError(ctx, err, text)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF"); err != nil {
			slog.Warn("failed to leave query_only mode", slog.String("error", err.Error()))
		}
	}()

	rows, err := readRows(ctx, conn, text, args...)
	if err != nil && strings.Contains(err.Error(), "readonly database") {
		return nil, mderrors.New(mderrors.ErrCodeReadOnlyQuery, "query tried to modify the index", errors.Unwrap(err)).
			WithDetail("query", text).
			WithSuggestion("use 'mdindex exec' to modify the index")
	}
	return rows, err
}

func readRows(ctx context.Context, conn *sql.Conn, text string, args ...any) ([]Row, error) {
	rows, err := conn.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, queryError(ctx, err, text)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, queryError(ctx, err, text)
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, queryError(ctx, err, text)
		}

		row := Row{Columns: make([]string, 0, len(cols)), Values: make(map[string]string, len(cols)), ResultColumns: cols}
		for i, c := range cols {
			if vals[i].Valid {
				row.Columns = append(row.Columns, c)
				row.Values[c] = vals[i].String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, err, text)
	}
	return out, nil
}

// RawExecute runs a mutating statement and returns the rows affected.
// Observers are notified afterwards.
func (s *Store) RawExecute(ctx context.Context, text string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errClosed()
	}

	res, err := s.db.ExecContext(ctx, text, args...)
	if err != nil {
		return 0, queryError(ctx, err, text)
	}
	s.notify()

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Stats counts documents by kind and properties overall.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Stats{}, errClosed()
	}

	st := Stats{ByKind: map[kind.Kind]int{}}
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT kind, COUNT(*) FROM docs GROUP BY kind")
		if err != nil {
			return err
		}
		for rows.Next() {
			var (
				k string
				n int
			)
			if err := rows.Scan(&k, &n); err != nil {
				_ = rows.Close()
				return err
			}
			st.ByKind[kind.Kind(k)] = n
			st.Documents += n
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return err
		}
		if err := rows.Close(); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&st.Properties)
	})
	if err != nil {
		return Stats{}, mderrors.StorageError("failed to read stats", err)
	}
	return st, nil
}

func queryError(ctx context.Context, err error, text string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return mderrors.QueryError("query failed", err).WithDetail("query", text)
}

func nullTitle(t sql.NullString) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
