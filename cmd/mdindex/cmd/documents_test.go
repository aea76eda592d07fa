package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/store"
)

func TestLsCmd_BuildsFreshIndex(t *testing.T) {
	// Given: a workspace that was never scanned
	root := newTestWorkspace(t, sampleFiles())

	// When: listing documents
	stdout, _, err := runCLI(t, "ls", "--root", root)

	// Then: the index is built first and printed tab-separated in path order
	require.NoError(t, err)
	assert.Equal(t,
		"PATH\tKIND\tTITLE\n"+
			"issues/one.md\tissue\tFirst issue\n"+
			"issues/two.md\tissue\tSecond issue\n"+
			"readme.md\tdocument\tReadme\n",
		stdout)
}

func TestLsCmd_KindFilterAndJSON(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "ls", "--root", root, "--kind", "issue", "--json")
	require.NoError(t, err)

	var docs []store.WorkspaceDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "issues/one.md", docs[0].Path)
	assert.Equal(t, "high", docs[0].Properties["priority"])
}

func TestLsCmd_EmptyJSONIsArray(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "ls", "--root", root, "--kind", "nothing", "--json")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestShowCmd_Document(t *testing.T) {
	// Given: an indexed workspace
	root := newTestWorkspace(t, sampleFiles())

	// When: showing one document
	stdout, _, err := runCLI(t, "show", "--root", root, "issues/one.md")

	// Then: registry fields come first, then sorted properties
	require.NoError(t, err)
	assert.Equal(t,
		"FIELD\tVALUE\n"+
			"path\tissues/one.md\n"+
			"kind\tissue\n"+
			"title\tFirst issue\n"+
			"priority\thigh\n"+
			"status\topen\n"+
			"title\tFirst issue\n",
		stdout)
}

func TestShowCmd_AbsolutePathAndJSON(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "show", "--root", root, "--json", filepath.Join(root, "readme.md"))
	require.NoError(t, err)

	var doc store.WorkspaceDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "readme.md", doc.Path)
	assert.Equal(t, "Readme", doc.TitleOrEmpty())
}

func TestShowCmd_NotFound(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	_, stderr, err := runCLI(t, "show", "--root", root, "missing.md")

	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeFileNotFound, mderrors.GetCode(err))
	assert.Contains(t, stderr, "mdindex ls")
}

func TestShowCmd_OutsideWorkspace(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	_, _, err := runCLI(t, "show", "--root", root, "../other.md")

	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeInvalidPath, mderrors.GetCode(err))
}

func TestQueryCmd_PlainAndJSON(t *testing.T) {
	// Given: an indexed workspace
	root := newTestWorkspace(t, sampleFiles())
	_, _, err := runCLI(t, "scan", root)
	require.NoError(t, err)

	// When: querying the issue extension table
	stdout, _, err := runCLI(t, "query", "--root", root,
		"SELECT path, status, priority FROM kind_issue ORDER BY path")

	// Then: NULL cells render empty
	require.NoError(t, err)
	assert.Equal(t,
		"path\tstatus\tpriority\n"+
			"issues/one.md\topen\thigh\n"+
			"issues/two.md\tclosed\t\n",
		stdout)

	// And: JSON omits NULL values
	stdout, _, err = runCLI(t, "query", "--root", root, "--json",
		"SELECT path, priority FROM kind_issue ORDER BY path")
	require.NoError(t, err)
	var result queryResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, []string{"path", "priority"}, result.Columns)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, map[string]string{"path": "issues/two.md"}, result.Rows[1])
}

func TestQueryCmd_EmptyResult(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "query", "--root", root, "SELECT path FROM docs WHERE 0")

	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestQueryCmd_InvalidSQL(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	_, _, err := runCLI(t, "query", "--root", root, "SELEC nonsense")

	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeInvalidQuery, mderrors.GetCode(err))
}

func TestQueryCmd_RejectsWrites(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())
	_, _, err := runCLI(t, "scan", root)
	require.NoError(t, err)

	// When: a delete is sent through query
	_, _, err = runCLI(t, "query", "--root", root, "DELETE FROM docs")

	// Then: it is refused and nothing was removed
	require.Error(t, err)
	assert.Equal(t, mderrors.ErrCodeReadOnlyQuery, mderrors.GetCode(err))

	stdout, _, err := runCLI(t, "query", "--root", root, "SELECT count(*) AS n FROM kind_issue")
	require.NoError(t, err)
	assert.Equal(t, "n\n2\n", stdout)
}

func TestExecCmd_ReportsAffectedRows(t *testing.T) {
	// Given: an indexed workspace
	root := newTestWorkspace(t, sampleFiles())
	_, _, err := runCLI(t, "scan", root)
	require.NoError(t, err)

	// When: deleting the closed issue
	stdout, _, err := runCLI(t, "exec", "--root", root, "DELETE FROM docs WHERE path = 'issues/two.md'")

	// Then: one row is reported and the cascade removed its extension row
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 row affected")

	stdout, _, err = runCLI(t, "query", "--root", root, "SELECT count(*) AS n FROM kind_issue")
	require.NoError(t, err)
	assert.Equal(t, "n\n1\n", stdout)
}

func TestExecCmd_UserTableSurvivesRescan(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	_, _, err := runCLI(t, "exec", "--root", root, "CREATE TABLE reviews(path TEXT PRIMARY KEY, reviewer TEXT)")
	require.NoError(t, err)

	_, _, err = runCLI(t, "exec", "--root", root, "INSERT INTO reviews VALUES ('readme.md', 'sam')")
	require.NoError(t, err)
	_, _, err = runCLI(t, "scan", root)
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "query", "--root", root, "SELECT reviewer FROM reviews")
	require.NoError(t, err)
	assert.Equal(t, "reviewer\nsam\n", stdout)
}

func TestStatusCmd_JSON(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "status", "--root", root, "--json")
	require.NoError(t, err)

	var info struct {
		Root      string         `json:"root"`
		Documents int            `json:"documents"`
		ByKind    map[string]int `json:"by_kind"`
		Kinds     []struct {
			Kind  string `json:"kind"`
			Table string `json:"table"`
		} `json:"kinds"`
		DatabaseSize int64 `json:"database_size"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, root, info.Root)
	assert.Equal(t, 3, info.Documents)
	assert.Equal(t, 2, info.ByKind["issue"])
	assert.Positive(t, info.DatabaseSize)

	tables := make(map[string]string)
	for _, k := range info.Kinds {
		tables[k.Kind] = k.Table
	}
	assert.Equal(t, "kind_issue", tables["issue"])
}

func TestStatusCmd_Plain(t *testing.T) {
	root := newTestWorkspace(t, sampleFiles())

	stdout, _, err := runCLI(t, "status", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Index Status: "+root)
	assert.Contains(t, stdout, "Documents:  3")
	assert.Contains(t, stdout, "issue\t2\tstatus, priority\tkind_issue")
}

func TestDocumentPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"relative", "docs/a.md", "docs/a.md", false},
		{"cleaned", "./docs/../a.md", "a.md", false},
		{"absolute inside", filepath.Join(root, "docs", "a.md"), "docs/a.md", false},
		{"absolute outside", filepath.Join(string(filepath.Separator), "other", "a.md"), "", true},
		{"parent", "../a.md", "", true},
		{"root itself", ".", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documentPath(root, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
