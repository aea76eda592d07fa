// Package frontmatter splits a Markdown document into its YAML frontmatter
// fields and body.
//
// Only top-level scalar values become fields, rendered as their literal text
// ("true", "3", "2024-01-02"). Nested mappings, sequences, and nulls are
// dropped because a document property holds exactly one text value.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var bom = []byte{0xEF, 0xBB, 0xBF}

// Document is a parsed Markdown file.
type Document struct {
	Fields map[string]string
	Body   string
}

// Title returns the "title" field, falling back to the first level-one
// heading of the body. The second result is false when neither exists.
func (d Document) Title() (string, bool) {
	if t := strings.TrimSpace(d.Fields["title"]); t != "" {
		return t, true
	}
	return FirstHeading(d.Body)
}

// Parse splits content into frontmatter fields and body.
//
// Content without an opening "---" line, or with an opening line but no
// closing one, has no frontmatter: Fields is empty and Body is the whole
// content. Malformed YAML, or frontmatter that is not a mapping, is an error.
func Parse(content []byte) (Document, error) {
	content = bytes.TrimPrefix(content, bom)
	doc := Document{Fields: map[string]string{}}

	block, body, ok := split(content)
	if !ok {
		doc.Body = string(content)
		return doc, nil
	}
	doc.Body = string(body)

	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return Document{}, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return Document{}, fmt.Errorf("invalid frontmatter: expected a mapping, got %s", nodeKind(m))
	}

	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		if val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode || val.Tag == "!!null" {
			continue
		}
		doc.Fields[key.Value] = val.Value
	}

	return doc, nil
}

// split returns the frontmatter block and the body after the closing line.
func split(content []byte) (block, body []byte, ok bool) {
	first, rest, _ := cutLine(content)
	if !isDelimiter(first) {
		return nil, nil, false
	}

	start := len(content) - len(rest)
	end := start
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if isDelimiter(line) {
			return content[start:end], next, true
		}
		end += len(rest) - len(next)
		rest = next
	}
	return nil, nil, false
}

// cutLine returns the first line without its terminator and the remainder.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t")) == delimiter
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "node"
	}
}
