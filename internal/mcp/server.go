package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/mdindex/internal/async"
	"github.com/Aman-CERP/mdindex/internal/kind"
	"github.com/Aman-CERP/mdindex/internal/store"
	"github.com/Aman-CERP/mdindex/pkg/version"
)

// ServerName is reported to clients during initialization.
const ServerName = "mdindex"

// DefaultQueryLimit caps the rows returned by query_documents.
const DefaultQueryLimit = 500

// DocumentReader is the read side of the index. *store.Store implements it.
type DocumentReader interface {
	AllDocuments(ctx context.Context) ([]store.WorkspaceDocument, error)
	DocumentsOfKind(ctx context.Context, k kind.Kind) ([]store.WorkspaceDocument, error)
	DocumentAt(ctx context.Context, path string) (*store.WorkspaceDocument, error)
	RawQuery(ctx context.Context, text string, args ...any) ([]store.Row, error)
	Stats(ctx context.Context) (store.Stats, error)
	Definitions() []kind.Definition
	ExtensionTable(k kind.Kind) (string, bool)
}

// Server is the MCP server for mdindex.
type Server struct {
	mcp      *mcp.Server
	docs     DocumentReader
	rootPath string
	logger   *slog.Logger
	watching atomic.Bool
	progress atomic.Pointer[async.Progress]
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "list_documents",
		Description: "List indexed workspace documents with their kind, title and frontmatter properties. Optionally restrict to one kind.",
	},
	{
		Name:        "get_document",
		Description: "Get one indexed document by its path relative to the workspace root.",
	},
	{
		Name:        "query_documents",
		Description: "Run a read-only SQL query (SELECT, WITH, EXPLAIN or PRAGMA) against the index. Tables: docs(path, kind, title), properties(path, key, value), and one kind_<name> table per kind with declared properties.",
	},
	{
		Name:        "index_status",
		Description: "Report document counts per kind, the declared kinds with their extension tables, and whether the index is following changes.",
	},
}

// NewServer creates an MCP server reading from docs.
func NewServer(docs DocumentReader, rootPath string) *Server {
	s := &Server{
		docs:     docs,
		rootPath: rootPath,
		logger:   slog.Default(),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// SetWatching records whether changes on disk are being applied.
func (s *Server) SetWatching(on bool) {
	s.watching.Store(on)
}

// SetProgress attaches the tracker of the indexer writing the store, so
// index_status can report a scan in flight.
func (s *Server) SetProgress(p *async.Progress) {
	s.progress.Store(p)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, NewInvalidParamsError(err.Error())
	}

	switch name {
	case "list_documents":
		var in ListDocumentsInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, NewInvalidParamsError(err.Error())
		}
		return s.listDocuments(ctx, in)
	case "get_document":
		var in GetDocumentInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, NewInvalidParamsError(err.Error())
		}
		return s.getDocument(ctx, in)
	case "query_documents":
		var in QueryDocumentsInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, NewInvalidParamsError(err.Error())
		}
		return s.queryDocuments(ctx, in)
	case "index_status":
		return s.indexStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpListDocumentsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpGetDocumentHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpQueryDocumentsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpListDocumentsHandler(ctx context.Context, _ *mcp.CallToolRequest, in ListDocumentsInput) (
	*mcp.CallToolResult,
	ListDocumentsOutput,
	error,
) {
	out, err := s.listDocuments(ctx, in)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) mcpGetDocumentHandler(ctx context.Context, _ *mcp.CallToolRequest, in GetDocumentInput) (
	*mcp.CallToolResult,
	GetDocumentOutput,
	error,
) {
	out, err := s.getDocument(ctx, in)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) mcpQueryDocumentsHandler(ctx context.Context, _ *mcp.CallToolRequest, in QueryDocumentsInput) (
	*mcp.CallToolResult,
	QueryDocumentsOutput,
	error,
) {
	out, err := s.queryDocuments(ctx, in)
	if err != nil {
		return nil, QueryDocumentsOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	out, err := s.indexStatus(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) listDocuments(ctx context.Context, in ListDocumentsInput) (ListDocumentsOutput, error) {
	var (
		docs []store.WorkspaceDocument
		err  error
	)
	if k := strings.TrimSpace(in.Kind); k != "" {
		docs, err = s.docs.DocumentsOfKind(ctx, kind.Kind(k))
	} else {
		docs, err = s.docs.AllDocuments(ctx)
	}
	if err != nil {
		return ListDocumentsOutput{}, MapError(err)
	}

	out := ListDocumentsOutput{Documents: make([]DocumentOutput, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, toDocumentOutput(d))
	}
	out.Count = len(out.Documents)
	return out, nil
}

func (s *Server) getDocument(ctx context.Context, in GetDocumentInput) (GetDocumentOutput, error) {
	p, err := normalizePath(in.Path)
	if err != nil {
		return GetDocumentOutput{}, err
	}

	doc, err := s.docs.DocumentAt(ctx, p)
	if err != nil {
		return GetDocumentOutput{}, MapError(err)
	}
	if doc == nil {
		return GetDocumentOutput{Found: false}, nil
	}
	d := toDocumentOutput(*doc)
	return GetDocumentOutput{Found: true, Document: &d}, nil
}

func (s *Server) queryDocuments(ctx context.Context, in QueryDocumentsInput) (QueryDocumentsOutput, error) {
	if err := CheckReadOnly(in.SQL); err != nil {
		return QueryDocumentsOutput{}, MapError(err)
	}

	rows, err := s.docs.RawQuery(ctx, in.SQL)
	if err != nil {
		s.logger.Debug("query_documents failed", slog.String("error", err.Error()))
		return QueryDocumentsOutput{}, MapError(err)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	out := QueryDocumentsOutput{Rows: make([]map[string]string, 0, min(len(rows), limit))}
	if len(rows) > 0 {
		out.Columns = rows[0].ResultColumns
	}
	for n, r := range rows {
		if n == limit {
			out.Truncated = true
			break
		}
		out.Rows = append(out.Rows, r.Values)
	}
	out.Count = len(out.Rows)
	return out, nil
}

func (s *Server) indexStatus(ctx context.Context) (IndexStatusOutput, error) {
	st, err := s.docs.Stats(ctx)
	if err != nil {
		return IndexStatusOutput{}, MapError(err)
	}

	out := IndexStatusOutput{
		Root:       s.rootPath,
		Watching:   s.watching.Load(),
		Documents:  st.Documents,
		Properties: st.Properties,
		ByKind:     make(map[string]int, len(st.ByKind)),
		Version:    version.Version,
	}
	for k, n := range st.ByKind {
		out.ByKind[string(k)] = n
	}
	if p := s.progress.Load(); p != nil {
		snap := p.Snapshot()
		out.Indexing = &snap
	}
	for _, d := range s.docs.Definitions() {
		ko := KindOutput{Kind: string(d.Kind), Properties: d.Properties}
		if table, ok := s.docs.ExtensionTable(d.Kind); ok {
			ko.Table = table
		}
		out.Kinds = append(out.Kinds, ko)
	}
	return out, nil
}

// normalizePath cleans a client-supplied document path into the
// slash-separated, root-relative form the index uses.
func normalizePath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", NewInvalidParamsError("path parameter is required")
	}
	if strings.HasPrefix(p, "/") {
		return "", NewInvalidParamsError("path must be relative to the workspace root")
	}
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", NewInvalidParamsError("path must stay inside the workspace")
	}
	return p, nil
}

func toDocumentOutput(d store.WorkspaceDocument) DocumentOutput {
	props := d.Properties
	if props == nil {
		props = map[string]string{}
	}
	return DocumentOutput{
		Path:       d.Path,
		Kind:       string(d.Kind),
		Title:      d.TitleOrEmpty(),
		Properties: props,
	}
}

// Serve runs the server on stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Starting MCP server", slog.String("transport", "stdio"), slog.String("root", s.rootPath))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && ctx.Err() == nil {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}
