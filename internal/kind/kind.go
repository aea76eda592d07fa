// Package kind defines document kinds and resolves which kind a document has.
package kind

import (
	"strings"

	"github.com/Aman-CERP/mdindex/internal/glob"
)

// Kind identifies a document category. Kinds compare by value.
type Kind string

// Built-in kinds.
const (
	Document Kind = "document"
	Issue    Kind = "issue"
)

// FrontmatterKey is the frontmatter field that explicitly names a kind.
const FrontmatterKey = "kind"

// String returns the kind identifier.
func (k Kind) String() string {
	return string(k)
}

// Definition declares the properties that documents of a kind mirror into
// that kind's extension table.
type Definition struct {
	Kind       Kind     `yaml:"kind" json:"kind"`
	Properties []string `yaml:"properties" json:"properties"`
}

// Rule assigns Kind to documents whose relative path matches Pattern.
type Rule struct {
	Pattern string `yaml:"path" json:"path"`
	Kind    Kind   `yaml:"kind" json:"kind"`
}

// Builtins returns the built-in definitions in their canonical order.
func Builtins() []Definition {
	return []Definition{
		{Kind: Document},
		{Kind: Issue, Properties: []string{"status", "priority"}},
	}
}

// Merge overlays configured definitions onto the built-ins.
//
// A configured definition replaces a built-in (or an earlier configured
// entry) of the same kind wholesale, keeping its position. Kinds not seen
// before are appended in configuration order. Repeated property names within
// one definition are collapsed to their first occurrence.
func Merge(configured []Definition) []Definition {
	out := Builtins()
	pos := make(map[Kind]int, len(out)+len(configured))
	for i, d := range out {
		pos[d.Kind] = i
	}

	for _, d := range configured {
		d = Definition{Kind: d.Kind, Properties: dedupe(d.Properties)}
		if i, ok := pos[d.Kind]; ok {
			out[i] = d
			continue
		}
		pos[d.Kind] = len(out)
		out = append(out, d)
	}
	return out
}

// Find returns the definition for k from defs.
func Find(defs []Definition, k Kind) (Definition, bool) {
	for _, d := range defs {
		if d.Kind == k {
			return d, true
		}
	}
	return Definition{}, false
}

// Equal reports whether two resolved definition lists are identical,
// including order.
func Equal(a, b []Definition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || len(a[i].Properties) != len(b[i].Properties) {
			return false
		}
		for j := range a[i].Properties {
			if a[i].Properties[j] != b[i].Properties[j] {
				return false
			}
		}
	}
	return true
}

// Resolve picks the kind for a document.
//
// A non-blank "kind" frontmatter field wins. Otherwise the first rule whose
// pattern matches path applies. Otherwise the document is a Document.
func Resolve(fields map[string]string, path string, rules []Rule) Kind {
	if v := strings.TrimSpace(fields[FrontmatterKey]); v != "" {
		return Kind(v)
	}
	for _, r := range rules {
		if glob.Match(r.Pattern, path) {
			return r.Kind
		}
	}
	return Document
}

func dedupe(props []string) []string {
	if len(props) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(props))
	out := make([]string, 0, len(props))
	for _, p := range props {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
