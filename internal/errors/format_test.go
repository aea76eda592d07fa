package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: a lock error with a suggestion
	err := New(ErrCodeIndexLocked, "index is in use by another process", nil).
		WithSuggestion("Stop the running 'mdindex watch' first")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: message, hint, and code are present
	assert.Contains(t, result, "Error: index is in use by another process")
	assert.Contains(t, result, "Hint: Stop the running 'mdindex watch' first")
	assert.Contains(t, result, "Code: ERR_209_INDEX_LOCKED")
}

func TestFormatForCLI_StandardErrorBecomesInternal(t *testing.T) {
	result := FormatForCLI(errors.New("something went wrong"))

	assert.Contains(t, result, "something went wrong")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatForCLI_ShowsDetailsSorted(t *testing.T) {
	err := ParseError("b.md", nil).WithDetail("a", "1")

	result := FormatForCLI(err)

	assert.Less(t, strings.Index(result, "a: 1"), strings.Index(result, "path: b.md"))
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON_BasicError(t *testing.T) {
	// Given: a query error with a cause
	err := QueryError("invalid query", errors.New("no such table: nope"))

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	// Then: code, category, and cause are encoded
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, ErrCodeInvalidQuery, parsed["code"])
	assert.Equal(t, "VALIDATION", parsed["category"])
	assert.Equal(t, "no such table: nope", parsed["cause"])
}

func TestLogAttrs_FlattensDetails(t *testing.T) {
	attrs := LogAttrs(ParseError("x.md", errors.New("boom")))

	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, ErrCodeParseSkipped)
	assert.Contains(t, attrs, "x.md")
	assert.Equal(t, []any{"error", "plain"}, LogAttrs(errors.New("plain")))
	assert.Nil(t, LogAttrs(nil))
}
