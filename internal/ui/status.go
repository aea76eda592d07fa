package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// StatusInfo describes an index for `mdindex status`.
type StatusInfo struct {
	Root         string         `json:"root"`
	DatabasePath string         `json:"database_path"`
	DatabaseSize int64          `json:"database_size"`
	LastModified time.Time      `json:"last_modified"`
	Documents    int            `json:"documents"`
	Properties   int            `json:"properties"`
	ByKind       map[string]int `json:"by_kind"`
	Kinds        []KindInfo     `json:"kinds"`
}

// KindInfo is one declared kind and where its properties are mirrored.
type KindInfo struct {
	Kind       string   `json:"kind"`
	Properties []string `json:"properties"`
	Table      string   `json:"table,omitempty"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
	styled bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
		styled: !noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.Root))

	_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("Documents: "), info.Documents)
	_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("Properties:"), info.Properties)
	_, _ = fmt.Fprintf(r.out, "  %s %s (%s)\n", r.styles.Label.Render("Database:  "),
		info.DatabasePath, FormatBytes(info.DatabaseSize))
	if !info.LastModified.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("Updated:   "), formatTime(info.LastModified))
	}
	_, _ = fmt.Fprintln(r.out)

	if len(info.Kinds) == 0 {
		return nil
	}
	t := Table{Headers: []string{"KIND", "DOCUMENTS", "PROPERTIES", "TABLE"}}
	for _, k := range info.Kinds {
		t.Rows = append(t.Rows, []string{
			k.Kind,
			fmt.Sprintf("%d", info.ByKind[k.Kind]),
			strings.Join(k.Properties, ", "),
			k.Table,
		})
	}
	return t.Render(r.out, r.styled)
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
