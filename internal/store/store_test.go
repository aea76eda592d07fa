package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
	"github.com/Aman-CERP/mdindex/internal/kind"
)

func openMemory(t *testing.T, defs ...kind.Definition) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Definitions: defs})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rec(path string, k kind.Kind, title string) DocumentRecord {
	return DocumentRecord{Path: path, Kind: k, Title: Title(title)}
}

func TestOpen_CreatesBuiltinSchema(t *testing.T) {
	// Given: no configured kinds
	s := openMemory(t)

	// Then: built-ins are resolved and issue has an extension table
	assert.Equal(t, kind.Builtins(), s.Definitions())
	table, ok := s.ExtensionTable(kind.Issue)
	require.True(t, ok)
	assert.Equal(t, "kind_issue", table)
	_, ok = s.ExtensionTable(kind.Document)
	assert.False(t, ok, "document declares no properties")

	rows, err := s.RawQuery(context.Background(), `SELECT name FROM pragma_table_info('kind_issue') ORDER BY cid`)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "path", rows[0].Values["name"])
	assert.Equal(t, "status", rows[1].Values["name"])
	assert.Equal(t, "priority", rows[2].Values["name"])
}

func TestOpen_ConfiguredKindOverridesBuiltin(t *testing.T) {
	s := openMemory(t, kind.Definition{Kind: kind.Issue, Properties: []string{"status", "assignee"}})

	rows, err := s.RawQuery(context.Background(), `SELECT name FROM pragma_table_info('kind_issue') ORDER BY cid`)
	require.NoError(t, err)

	var cols []string
	for _, r := range rows {
		cols = append(cols, r.Values["name"])
	}
	assert.Equal(t, []string{"path", "status", "assignee"}, cols)
}

func TestUpsertDocument_MirrorsDeclaredProperties(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	// Given: an issue with one declared property present and one absent
	err := s.UpsertDocument(ctx, rec("issues/1.md", kind.Issue, "Login bug"),
		map[string]string{"status": "open", "owner": "sam"})
	require.NoError(t, err)

	// Then: every property is in the universal relation
	doc, err := s.DocumentAt(ctx, "issues/1.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, kind.Issue, doc.Kind)
	assert.Equal(t, "Login bug", doc.TitleOrEmpty())
	assert.Equal(t, map[string]string{"status": "open", "owner": "sam"}, doc.Properties)

	// And: declared properties are mirrored, absent ones are NULL
	rows, err := s.RawQuery(ctx, "SELECT path, status, priority FROM kind_issue")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"path": "issues/1.md", "status": "open"}, rows[0].Values)
	assert.Equal(t, []string{"path", "status"}, rows[0].Columns)
	assert.Equal(t, []string{"path", "status", "priority"}, rows[0].ResultColumns)
}

func TestUpsertDocument_ReplacesPropertiesWholesale(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), map[string]string{"x": "1", "y": "2"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), map[string]string{"y": "3"}))

	doc, err := s.DocumentAt(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"y": "3"}, doc.Properties)
	assert.Nil(t, doc.Title)
}

func TestUpsertDocument_KindChangeLeavesNoResidue(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t, kind.Definition{Kind: "meeting", Properties: []string{"date"}})

	// Given: a document first indexed as an issue
	require.NoError(t, s.UpsertDocument(ctx, rec("x.md", kind.Issue, ""), map[string]string{"status": "open"}))

	// When: it becomes a meeting
	require.NoError(t, s.UpsertDocument(ctx, rec("x.md", "meeting", ""), map[string]string{"date": "2024-01-01"}))

	// Then: only the meeting extension holds it
	issues, err := s.RawQuery(ctx, "SELECT path FROM kind_issue")
	require.NoError(t, err)
	assert.Empty(t, issues)

	meetings, err := s.RawQuery(ctx, "SELECT path, date FROM kind_meeting")
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "2024-01-01", meetings[0].Values["date"])

	// And: changing to a kind without an extension table clears it too
	require.NoError(t, s.UpsertDocument(ctx, rec("x.md", "unknown", ""), nil))
	meetings, err = s.RawQuery(ctx, "SELECT path FROM kind_meeting")
	require.NoError(t, err)
	assert.Empty(t, meetings)
}

func TestRemoveDocument_Cascades(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("i.md", kind.Issue, "t"), map[string]string{"status": "done", "k": "v"}))

	require.NoError(t, s.RemoveDocument(ctx, "i.md"))

	for _, q := range []string{"SELECT * FROM docs", "SELECT * FROM properties", "SELECT * FROM kind_issue"} {
		rows, err := s.RawQuery(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, rows, q)
	}
	doc, err := s.DocumentAt(ctx, "i.md")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestRemoveDocument_AbsentIsNoop(t *testing.T) {
	s := openMemory(t)

	assert.NoError(t, s.RemoveDocument(context.Background(), "never.md"))
}

func TestRemoveAllDocuments(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), map[string]string{"a": "1"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("b.md", kind.Issue, ""), map[string]string{"status": "x"}))

	require.NoError(t, s.RemoveAllDocuments(ctx))

	docs, err := s.AllDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Properties)
}

func TestAllDocuments_OrderedAndHydrated(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("z.md", kind.Document, "Z"), nil))
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Issue, ""), map[string]string{"status": "open"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("m/n.md", kind.Document, ""), map[string]string{"tag": "x"}))

	docs, err := s.AllDocuments(ctx)
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "a.md", docs[0].Path)
	assert.Equal(t, map[string]string{"status": "open"}, docs[0].Properties)
	assert.Equal(t, "m/n.md", docs[1].Path)
	assert.Equal(t, "z.md", docs[2].Path)
	assert.Equal(t, map[string]string{}, docs[2].Properties)
}

func TestDocumentsOfKind(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), map[string]string{"k": "doc"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("b.md", kind.Issue, ""), map[string]string{"k": "issue"}))

	issues, err := s.DocumentsOfKind(ctx, kind.Issue)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "b.md", issues[0].Path)
	assert.Equal(t, map[string]string{"k": "issue"}, issues[0].Properties)

	none, err := s.DocumentsOfKind(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRawQuery_RendersValuesAsText(t *testing.T) {
	s := openMemory(t)

	rows, err := s.RawQuery(context.Background(), "SELECT 1 AS n, 2.5 AS f, 'x' AS s, NULL AS z, ? AS arg", "bound")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"n", "f", "s", "arg"}, rows[0].Columns)
	assert.Equal(t, []string{"n", "f", "s", "z", "arg"}, rows[0].ResultColumns)
	assert.Equal(t, map[string]string{"n": "1", "f": "2.5", "s": "x", "arg": "bound"}, rows[0].Values)
}

func TestRawQuery_InvalidTextIsQueryError(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.RawQuery(ctx, "SELEC nonsense")
	require.Error(t, err)
	assert.True(t, mderrors.IsQueryError(err))

	_, err = s.RawQuery(ctx, "SELECT * FROM no_such_table")
	assert.True(t, mderrors.IsQueryError(err))

	// Then: the store remains usable
	require.NoError(t, s.UpsertDocument(ctx, rec("ok.md", kind.Document, ""), nil))
	docs, err := s.AllDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRawQuery_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Issue, ""), map[string]string{"status": "open"}))

	// When: write statements go through the read path
	for _, q := range []string{
		"DELETE FROM docs",
		"WITH t AS (SELECT 1) REPLACE INTO docs (path, kind) VALUES ('x.md', 'document')",
		"UPDATE kind_issue SET status = 'closed' RETURNING path",
	} {
		_, err := s.RawQuery(ctx, q)

		// Then: each is refused as a read-only violation
		require.Error(t, err, q)
		assert.Equal(t, mderrors.ErrCodeReadOnlyQuery, mderrors.GetCode(err), q)
	}

	// And: the index is unchanged and still writable
	doc, err := s.DocumentAt(ctx, "a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, map[string]string{"status": "open"}, doc.Properties)
	missing, err := s.DocumentAt(ctx, "x.md")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := s.RawExecute(ctx, "UPDATE kind_issue SET status = 'closed'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRawExecute(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Issue, ""), map[string]string{"status": "open"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("b.md", kind.Issue, ""), map[string]string{"status": "open"}))

	n, err := s.RawExecute(ctx, "UPDATE kind_issue SET status = ? WHERE status = ?", "closed", "open")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.RawExecute(ctx, "DELETE FROM nowhere")
	assert.True(t, mderrors.IsQueryError(err))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), map[string]string{"x": "1"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("b.md", kind.Issue, ""), map[string]string{"status": "open", "priority": "1"}))
	require.NoError(t, s.UpsertDocument(ctx, rec("c.md", kind.Issue, ""), nil))

	st, err := s.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, st.Documents)
	assert.Equal(t, 3, st.Properties)
	assert.Equal(t, map[kind.Kind]int{kind.Document: 1, kind.Issue: 2}, st.ByKind)
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	assert.Error(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), nil))
	_, err = s.AllDocuments(ctx)
	assert.Error(t, err)
	_, err = s.ObserveAllDocuments(ctx)
	assert.Error(t, err)
}

func TestOpen_FilePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	// Given: a file-backed store with one document
	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	assert.True(t, s.Rebuilt())
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Issue, "A"), map[string]string{"status": "open"}))
	require.NoError(t, s.Close())

	// When: reopening with the same definitions
	s, err = Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer s.Close()

	// Then: the document survives and no rebuild happened
	assert.False(t, s.Rebuilt())
	doc, err := s.DocumentAt(ctx, "a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "A", doc.TitleOrEmpty())
}

func TestOpen_ChangedDefinitionsRebuild(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Issue, ""), map[string]string{"status": "open"}))
	_, err = s.RawExecute(ctx, "CREATE TABLE notes_user (x TEXT)")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// When: reopening with a new kind that has properties
	s, err = Open(ctx, Options{Path: path, Definitions: []kind.Definition{{Kind: "task", Properties: []string{"due"}}}})
	require.NoError(t, err)
	defer s.Close()

	// Then: index tables were rebuilt empty, user tables kept
	assert.True(t, s.Rebuilt())
	docs, err := s.AllDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	_, ok := s.ExtensionTable("task")
	assert.True(t, ok)
	_, err = s.RawQuery(ctx, "SELECT * FROM notes_user")
	assert.NoError(t, err)
}

func TestObserveAllDocuments_EmitsInitialThenUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), nil))

	// Given: an observer
	ch, err := s.ObserveAllDocuments(ctx)
	require.NoError(t, err)

	// Then: the first emission is the current state
	first := receive(t, ch)
	require.Len(t, first, 1)

	// When: a write commits
	require.NoError(t, s.UpsertDocument(ctx, rec("b.md", kind.Document, ""), nil))

	// Then: an emission with the new state follows
	second := receive(t, ch)
	assert.Len(t, second, 2)
}

func TestObserveAllDocuments_FinalStateAfterBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openMemory(t)

	ch, err := s.ObserveAllDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))

	// When: many writes commit while nobody reads
	for _, p := range []string{"1.md", "2.md", "3.md", "4.md", "5.md"} {
		require.NoError(t, s.UpsertDocument(ctx, rec(p, kind.Document, ""), nil))
	}

	// Then: emissions converge on all five documents
	deadline := time.After(5 * time.Second)
	for {
		select {
		case docs, ok := <-ch:
			require.True(t, ok)
			if len(docs) == 5 {
				return
			}
		case <-deadline:
			t.Fatal("observer never reported the final state")
		}
	}
}

func TestObserveDocumentsOfKind_FiltersAndFollowsRawWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openMemory(t)
	require.NoError(t, s.UpsertDocument(ctx, rec("a.md", kind.Document, ""), nil))
	require.NoError(t, s.UpsertDocument(ctx, rec("b.md", kind.Issue, ""), nil))

	ch, err := s.ObserveDocumentsOfKind(ctx, kind.Issue)
	require.NoError(t, err)
	initial := receive(t, ch)
	require.Len(t, initial, 1)
	assert.Equal(t, "b.md", initial[0].Path)

	_, err = s.RawExecute(ctx, "DELETE FROM docs WHERE kind = 'issue'")
	require.NoError(t, err)

	assert.Empty(t, receive(t, ch))
}

func TestObserve_ClosesOnCancelAndOnStoreClose(t *testing.T) {
	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch1, err := s.ObserveAllDocuments(ctx)
	require.NoError(t, err)
	ch2, err := s.ObserveAllDocuments(context.Background())
	require.NoError(t, err)

	cancel()
	drainUntilClosed(t, ch1)

	require.NoError(t, s.Close())
	drainUntilClosed(t, ch2)
}

func receive(t *testing.T, ch <-chan []WorkspaceDocument) []WorkspaceDocument {
	t.Helper()
	select {
	case docs, ok := <-ch:
		require.True(t, ok, "channel closed")
		return docs
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for observer emission")
		return nil
	}
}

func drainUntilClosed(t *testing.T, ch <-chan []WorkspaceDocument) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("observer channel never closed")
		}
	}
}
