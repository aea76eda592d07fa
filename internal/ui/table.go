package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Aman-CERP/mdindex/internal/store"
)

// Table is a header row plus data rows, rendered either styled or as
// tab-separated text.
type Table struct {
	Headers []string
	Rows    [][]string
}

var cellEscaper = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ")

// Render writes t to w. Plain output is one line per row with tab-separated
// cells, header first, so it can be piped to cut or awk.
func (t Table) Render(w io.Writer, styled bool) error {
	if !styled {
		return t.renderPlain(w)
	}

	s := DefaultStyles()
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.HeaderRow
			}
			return s.Cell
		})
	_, err := fmt.Fprintln(w, tbl.String())
	return err
}

func (t Table) renderPlain(w io.Writer) error {
	lines := make([]string, 0, len(t.Rows)+1)
	if len(t.Headers) > 0 {
		lines = append(lines, joinCells(t.Headers))
	}
	for _, row := range t.Rows {
		lines = append(lines, joinCells(row))
	}
	if len(lines) == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func joinCells(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = cellEscaper.Replace(c)
	}
	return strings.Join(escaped, "\t")
}

// DocumentsTable lists documents by path, kind and title.
func DocumentsTable(docs []store.WorkspaceDocument) Table {
	t := Table{Headers: []string{"PATH", "KIND", "TITLE"}}
	for _, d := range docs {
		t.Rows = append(t.Rows, []string{d.Path, d.Kind.String(), d.TitleOrEmpty()})
	}
	return t
}

// DocumentTable shows one document as key/value pairs, properties sorted
// by name after the registry fields.
func DocumentTable(doc store.WorkspaceDocument) Table {
	t := Table{
		Headers: []string{"FIELD", "VALUE"},
		Rows: [][]string{
			{"path", doc.Path},
			{"kind", doc.Kind.String()},
			{"title", doc.TitleOrEmpty()},
		},
	}
	keys := make([]string, 0, len(doc.Properties))
	for k := range doc.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Rows = append(t.Rows, []string{k, doc.Properties[k]})
	}
	return t
}

// RowsTable renders raw query results. NULL cells are shown empty.
func RowsTable(rows []store.Row) Table {
	if len(rows) == 0 {
		return Table{}
	}
	t := Table{Headers: rows[0].ResultColumns}
	for _, r := range rows {
		cells := make([]string, len(t.Headers))
		for i, c := range t.Headers {
			cells[i] = r.Values[c]
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
