// Package store is the SQLite index of workspace documents.
//
// Every document has a row in docs and one row per frontmatter field in
// properties. Each kind that declares properties also gets an extension
// table whose columns mirror those properties, so queries can filter a kind
// by its fields without pivoting. Deleting a docs row cascades to the other
// tables.
package store

import (
	"time"

	"github.com/Aman-CERP/mdindex/internal/kind"
)

// DocumentRecord is the registry entry for one document.
type DocumentRecord struct {
	Path  string    `json:"path"`
	Kind  kind.Kind `json:"kind"`
	Title *string   `json:"title,omitempty"`
}

// WorkspaceDocument is a record hydrated with all of its properties.
type WorkspaceDocument struct {
	DocumentRecord
	Properties map[string]string `json:"properties"`
}

// TitleOrEmpty returns the title, or "" when the document has none.
func (d DocumentRecord) TitleOrEmpty() string {
	if d.Title == nil {
		return ""
	}
	return *d.Title
}

// Row is one result row of a raw query.
type Row struct {
	// Columns are the row's non-NULL columns in statement order. NULL columns
	// are absent from both Columns and Values.
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
	// ResultColumns is the statement's full column list, shared by every
	// row. Tables use it for headers.
	ResultColumns []string `json:"-"`
}

// Stats summarizes the index contents.
type Stats struct {
	Documents  int               `json:"documents"`
	Properties int               `json:"properties"`
	ByKind     map[kind.Kind]int `json:"by_kind"`
}

// Options configures Open.
type Options struct {
	// Path is the database file. Empty means an in-memory database.
	Path string
	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3,
	// cgo builds only). Empty means "sqlite".
	Driver string
	// Definitions are the configured kinds; built-ins are always added.
	Definitions []kind.Definition
	// BusyTimeout bounds waits on a locked database file.
	BusyTimeout time.Duration
	// CacheSizeMB sets the page cache size.
	CacheSizeMB int
}

// Title returns a pointer to t, or nil when t is empty.
func Title(t string) *string {
	if t == "" {
		return nil
	}
	return &t
}
