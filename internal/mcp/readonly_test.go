package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
)

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		sql  string
		want string // error code, "" when allowed
	}{
		{"SELECT * FROM docs", ""},
		{"  select path from docs;  ", ""},
		{"-- comment\nSELECT 1", ""},
		{"/* lead */ WITH x AS (SELECT 1) SELECT * FROM x", ""},
		{"EXPLAIN QUERY PLAN SELECT * FROM docs", ""},
		{"PRAGMA table_info('kind_issue')", ""},
		{"PRAGMA user_version", ""},
		{"SELECT 'DELETE FROM docs' AS s", ""},
		{`SELECT "update" FROM docs`, ""},
		{"SELECT replace(path, '.md', '') FROM docs", ""},
		{"", mderrors.ErrCodeQueryEmpty},
		{"  -- only a comment", mderrors.ErrCodeQueryEmpty},
		{"DELETE FROM docs", mderrors.ErrCodeReadOnlyQuery},
		{"INSERT INTO docs VALUES ('a', 'b', NULL)", mderrors.ErrCodeReadOnlyQuery},
		{"WITH x AS (SELECT 1) DELETE FROM docs", mderrors.ErrCodeReadOnlyQuery},
		{"SELECT 1; DROP TABLE docs", mderrors.ErrCodeReadOnlyQuery},
		{"PRAGMA user_version = 3", mderrors.ErrCodeReadOnlyQuery},
		{"PRAGMA journal_mode(DELETE)", mderrors.ErrCodeReadOnlyQuery},
		{"PRAGMA foreign_keys(0)", mderrors.ErrCodeReadOnlyQuery},
		{"ATTACH DATABASE 'x.db' AS x", mderrors.ErrCodeReadOnlyQuery},
		{"WITH t AS (SELECT 1) REPLACE INTO docs (path, kind) VALUES ('x.md', 'document')", mderrors.ErrCodeReadOnlyQuery},
		{"WITH t AS (SELECT 1) REPLACE\nINTO docs (path, kind) SELECT 'y.md', 'document'", mderrors.ErrCodeReadOnlyQuery},
		{"SELECT 1; SAVEPOINT s", mderrors.ErrCodeReadOnlyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			err := CheckReadOnly(tt.sql)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, mderrors.GetCode(err))
		})
	}
}
