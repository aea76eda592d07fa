// Package output provides consistent CLI status lines and JSON output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/mdindex/internal/ui"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out   io.Writer
	icons bool
}

// New creates a Writer that uses icons only when out is an interactive terminal.
func New(out io.Writer) *Writer {
	return NewWithIcons(out, ui.Interactive(out))
}

// NewWithIcons creates a Writer with icons explicitly on or off.
func NewWithIcons(out io.Writer, icons bool) *Writer {
	return &Writer{out: out, icons: icons}
}

// Styled reports whether tables written through w should be styled.
func (w *Writer) Styled() bool {
	return w.icons
}

// Out returns the underlying writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Status prints a status message with an icon. Without icons the message
// is printed as is. Errors from writing are ignored for console output.
func (w *Writer) Status(icon, msg string) {
	switch {
	case icon != "" && w.icons:
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	case icon != "" || !w.icons:
		_, _ = fmt.Fprintln(w.out, msg)
	default:
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.labeled("✅", "", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.labeled("⚠️ ", "warning: ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.labeled("❌", "error: ", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

func (w *Writer) labeled(icon, label, msg string) {
	if w.icons {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s%s\n", label, msg)
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON followed by a newline.
func (w *Writer) JSON(v any) error {
	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
