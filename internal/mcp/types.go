package mcp

import "github.com/Aman-CERP/mdindex/internal/async"

// ListDocumentsInput defines the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"only list documents of this kind, e.g. issue"`
}

// ListDocumentsOutput defines the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents" jsonschema:"documents ordered by path"`
	Count     int              `json:"count" jsonschema:"number of documents returned"`
}

// DocumentOutput is one indexed document.
type DocumentOutput struct {
	Path       string            `json:"path" jsonschema:"path relative to the workspace root"`
	Kind       string            `json:"kind" jsonschema:"resolved document kind"`
	Title      string            `json:"title,omitempty" jsonschema:"frontmatter title or first heading"`
	Properties map[string]string `json:"properties" jsonschema:"top-level frontmatter fields"`
}

// GetDocumentInput defines the input schema for the get_document tool.
type GetDocumentInput struct {
	Path string `json:"path" jsonschema:"document path relative to the workspace root, e.g. issues/login.md"`
}

// GetDocumentOutput defines the output schema for the get_document tool.
type GetDocumentOutput struct {
	Found    bool            `json:"found" jsonschema:"false when no document is indexed at the path"`
	Document *DocumentOutput `json:"document,omitempty" jsonschema:"the document when found"`
}

// QueryDocumentsInput defines the input schema for the query_documents tool.
type QueryDocumentsInput struct {
	SQL   string `json:"sql" jsonschema:"a single read-only SQL statement"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum rows to return, default 500"`
}

// QueryDocumentsOutput defines the output schema for the query_documents tool.
type QueryDocumentsOutput struct {
	Columns   []string            `json:"columns" jsonschema:"result column names in order"`
	Rows      []map[string]string `json:"rows" jsonschema:"rows as column to text value; NULL columns are omitted"`
	Count     int                 `json:"count" jsonschema:"number of rows returned"`
	Truncated bool                `json:"truncated,omitempty" jsonschema:"true when more rows matched than the limit"`
}

// IndexStatusInput defines the (empty) input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Root       string                  `json:"root" jsonschema:"workspace root directory"`
	Watching   bool                    `json:"watching" jsonschema:"true while changes on disk are applied live"`
	Documents  int                     `json:"documents" jsonschema:"number of indexed documents"`
	Properties int                     `json:"properties" jsonschema:"number of indexed frontmatter fields"`
	ByKind     map[string]int          `json:"by_kind" jsonschema:"document count per kind"`
	Kinds      []KindOutput            `json:"kinds" jsonschema:"declared kinds"`
	Indexing   *async.ProgressSnapshot `json:"indexing,omitempty" jsonschema:"progress of the current or last scan when this server writes the index"`
	Version    string                  `json:"version" jsonschema:"mdindex version"`
}

// KindOutput describes one declared kind.
type KindOutput struct {
	Kind       string   `json:"kind"`
	Properties []string `json:"properties,omitempty"`
	Table      string   `json:"table,omitempty" jsonschema:"extension table mirroring the properties"`
}
