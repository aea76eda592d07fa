package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

func asIndexError(err error) *IndexError {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ie := asIndexError(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ie.Message))
	if ie.Cause != nil && ie.Cause.Error() != ie.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", ie.Cause))
	}

	if len(ie.Details) > 0 {
		keys := make([]string, 0, len(ie.Details))
		for k := range ie.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, ie.Details[k]))
		}
	}

	if ie.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ie.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", ie.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error, used by --json output.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ie := asIndexError(err)
	je := jsonError{
		Code:       ie.Code,
		Message:    ie.Message,
		Category:   string(ie.Category),
		Severity:   string(ie.Severity),
		Details:    ie.Details,
		Suggestion: ie.Suggestion,
		Retryable:  ie.Retryable,
	}
	if ie.Cause != nil {
		je.Cause = ie.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs flattens an error into slog key-value pairs.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	var ie *IndexError
	if !errors.As(err, &ie) {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", ie.Code,
		"error", ie.Message,
		"severity", string(ie.Severity),
	}
	if ie.Cause != nil {
		attrs = append(attrs, "cause", ie.Cause.Error())
	}

	keys := make([]string, 0, len(ie.Details))
	for k := range ie.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, ie.Details[k])
	}
	return attrs
}
