package mcp

import (
	"strings"
	"unicode"

	mderrors "github.com/Aman-CERP/mdindex/internal/errors"
)

var readOnlyLeads = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"EXPLAIN": true,
	"PRAGMA":  true,
	"VALUES":  true,
}

var writeKeywords = map[string]bool{
	"INSERT":    true,
	"REPLACE":   true,
	"UPDATE":    true,
	"DELETE":    true,
	"CREATE":    true,
	"DROP":      true,
	"ALTER":     true,
	"ATTACH":    true,
	"DETACH":    true,
	"VACUUM":    true,
	"REINDEX":   true,
	"ANALYZE":   true,
	"BEGIN":     true,
	"COMMIT":    true,
	"ROLLBACK":  true,
	"SAVEPOINT": true,
	"RELEASE":   true,
}

// CheckReadOnly rejects statements that could modify the index: anything
// that does not start with a read keyword, contains a write keyword, holds
// more than one statement, or assigns a pragma.
func CheckReadOnly(text string) error {
	tokens, statements := tokenize(text)
	if len(tokens) == 0 {
		return mderrors.New(mderrors.ErrCodeQueryEmpty, "query is empty", nil)
	}
	reject := func(reason string) error {
		return mderrors.New(mderrors.ErrCodeReadOnlyQuery, "only read-only queries are allowed", nil).
			WithDetail("reason", reason).
			WithSuggestion("use 'mdindex exec' to modify the index")
	}

	if statements > 1 {
		return reject("multiple statements")
	}
	if !readOnlyLeads[tokens[0]] {
		return reject("statement starts with " + tokens[0])
	}
	for n, tok := range tokens {
		// replace(x, y, z) is the string function, not REPLACE INTO.
		if tok == "REPLACE" && n+1 < len(tokens) && tokens[n+1] == "(" {
			continue
		}
		if writeKeywords[tok] {
			return reject("statement contains " + tok)
		}
		if tokens[0] == "PRAGMA" && tok == "=" {
			return reject("pragma assignment")
		}
		// PRAGMA name(value) also assigns, except for table-valued reads.
		if tokens[0] == "PRAGMA" && tok == "(" && n >= 2 && !pragmaReadsArgument(tokens[n-1]) {
			return reject("pragma assignment")
		}
	}
	return nil
}

func pragmaReadsArgument(name string) bool {
	switch name {
	case "TABLE_INFO", "TABLE_XINFO", "INDEX_LIST", "INDEX_INFO", "INDEX_XINFO",
		"FOREIGN_KEY_LIST", "INTEGRITY_CHECK", "QUICK_CHECK", "FOREIGN_KEY_CHECK", "TABLE_LIST":
		return true
	default:
		return false
	}
}

// tokenize upper-cases the words and punctuation of text, dropping comments,
// string literals and quoted identifiers. It also counts statements: a ";"
// followed by more tokens starts a new one.
func tokenize(text string) (tokens []string, statements int) {
	pendingSemicolon := false
	emit := func(tok string) {
		if len(tokens) == 0 || pendingSemicolon {
			statements++
			pendingSemicolon = false
		}
		tokens = append(tokens, tok)
	}

	r := []rune(text)
	for i := 0; i < len(r); {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '-' && i+1 < len(r) && r[i+1] == '-':
			for i < len(r) && r[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(r) && r[i+1] == '*':
			i += 2
			for i+1 < len(r) && !(r[i] == '*' && r[i+1] == '/') {
				i++
			}
			i += 2
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			i++
			for i < len(r) && r[i] != closer {
				i++
			}
			i++
			emit("LITERAL")
		case c == ';':
			pendingSemicolon = true
			i++
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(r) && (unicode.IsLetter(r[i]) || unicode.IsDigit(r[i]) || r[i] == '_' || r[i] == '$') {
				i++
			}
			emit(strings.ToUpper(string(r[start:i])))
		default:
			emit(string(c))
			i++
		}
	}
	return tokens, statements
}
