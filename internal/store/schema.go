package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/mdindex/internal/kind"
)

// schemaVersion is mixed into the fingerprint so layout changes in this
// package force a rebuild of existing databases.
const schemaVersion = 1

const extensionPrefix = "kind_"

// extensionTable mirrors the declared properties of one kind.
type extensionTable struct {
	kind    kind.Kind
	name    string
	columns []string // property names, one column each

	insertSQL string
	deleteSQL string
}

// Schema is the relational layout derived from a set of kind definitions.
type Schema struct {
	definitions []kind.Definition
	extensions  []extensionTable
	byKind      map[kind.Kind]int
}

// NewSchema builds the layout for defs, which must already be merged with
// the built-ins.
func NewSchema(defs []kind.Definition) *Schema {
	s := &Schema{
		definitions: defs,
		byKind:      make(map[kind.Kind]int, len(defs)),
	}

	for _, d := range defs {
		cols := extensionColumns(d)
		if len(cols) == 0 {
			continue
		}
		t := extensionTable{kind: d.Kind, name: TableName(d.Kind), columns: cols}
		t.insertSQL, t.deleteSQL = t.statements()
		s.byKind[d.Kind] = len(s.extensions)
		s.extensions = append(s.extensions, t)
	}
	return s
}

// extensionColumns returns the properties of d that get a column.
// "path" is the key column, and SQLite column names are case-insensitive,
// so those properties stay in the properties table only.
func extensionColumns(d kind.Definition) []string {
	seen := map[string]struct{}{"path": {}}
	cols := make([]string, 0, len(d.Properties))
	for _, p := range d.Properties {
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			slog.Warn("property has no extension column",
				slog.String("kind", string(d.Kind)),
				slog.String("property", p))
			continue
		}
		seen[key] = struct{}{}
		cols = append(cols, p)
	}
	return cols
}

// TableName returns the extension table name for k: "kind_" plus k lowered
// to [a-z0-9_]. When that changes k, a hash of k is appended so distinct
// kinds never share a table.
func TableName(k kind.Kind) string {
	raw := string(k)
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name != raw {
		h := fnv.New32a()
		_, _ = h.Write([]byte(raw))
		name = fmt.Sprintf("%s_%08x", name, h.Sum32())
	}
	return extensionPrefix + name
}

// Definitions returns a copy of the definitions the schema was built from.
func (s *Schema) Definitions() []kind.Definition {
	out := make([]kind.Definition, len(s.definitions))
	for i, d := range s.definitions {
		out[i] = kind.Definition{Kind: d.Kind, Properties: append([]string(nil), d.Properties...)}
	}
	return out
}

func (s *Schema) extension(k kind.Kind) (extensionTable, bool) {
	i, ok := s.byKind[k]
	if !ok {
		return extensionTable{}, false
	}
	return s.extensions[i], true
}

// DDL returns the CREATE statements for the whole schema.
func (s *Schema) DDL() []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS docs (
    path TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    title TEXT
)`,
		`CREATE INDEX IF NOT EXISTS idx_docs_kind ON docs (kind)`,
		`CREATE TABLE IF NOT EXISTS properties (
    path TEXT NOT NULL REFERENCES docs (path) ON DELETE CASCADE,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (path, key)
)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_key ON properties (key, value)`,
	}

	for _, t := range s.extensions {
		var b strings.Builder
		b.WriteString("CREATE TABLE IF NOT EXISTS ")
		b.WriteString(quoteIdent(t.name))
		b.WriteString(" (\n    path TEXT PRIMARY KEY REFERENCES docs (path) ON DELETE CASCADE")
		for _, c := range t.columns {
			b.WriteString(",\n    ")
			b.WriteString(quoteIdent(c))
			b.WriteString(" TEXT")
		}
		b.WriteString("\n)")
		stmts = append(stmts, b.String())
	}
	return stmts
}

// fingerprint hashes the layout. It is stored in PRAGMA user_version, which
// is a signed 32-bit integer, and is never zero so a fresh database always
// mismatches.
func (s *Schema) fingerprint() int32 {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "v%d\n", schemaVersion)
	for _, t := range s.extensions {
		_, _ = fmt.Fprintf(h, "%s\x00%s", t.kind, t.name)
		for _, c := range t.columns {
			_, _ = fmt.Fprintf(h, "\x00%s", c)
		}
		_, _ = h.Write([]byte{'\n'})
	}
	fp := int32(h.Sum32())
	if fp == 0 {
		fp = 1
	}
	return fp
}

func (t extensionTable) statements() (insert, del string) {
	cols := make([]string, 0, len(t.columns)+1)
	marks := make([]string, 0, len(t.columns)+1)
	cols = append(cols, "path")
	marks = append(marks, "?")
	for _, c := range t.columns {
		cols = append(cols, quoteIdent(c))
		marks = append(marks, "?")
	}
	table := quoteIdent(t.name)
	insert = fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	del = fmt.Sprintf("DELETE FROM %s WHERE path = ?", table)
	return insert, del
}

// migrate brings the database to this schema. A database built for a
// different schema is dropped and recreated; the index is derived data and
// the next scan repopulates it.
func (s *Schema) migrate(ctx context.Context, db *sql.DB) (rebuilt bool, err error) {
	var current int32
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return false, fmt.Errorf("failed to read schema version: %w", err)
	}
	want := s.fingerprint()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if current != want {
		if err := dropIndexTables(ctx, tx); err != nil {
			return false, err
		}
	}

	for _, stmt := range s.DDL() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if current != want {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", want)); err != nil {
			return false, fmt.Errorf("failed to record schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit schema: %w", err)
	}
	return current != want, nil
}

// dropIndexTables drops every table this package owns, children first.
// Tables created through RawExecute under other names are left alone.
func dropIndexTables(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'kind\_%' ESCAPE '\'`)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to list tables: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to list tables: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	tables = append(tables, "properties", "docs")

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(t)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t, err)
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
