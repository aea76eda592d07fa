// Package scanner lists the Markdown documents of a workspace.
// Its Filter is shared with the watcher so that both agree on which
// files are documents.
package scanner

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest file considered a document (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// defaultExcludeDirs are directory names never descended into.
// Hidden directories (".git", ".mdindex", ...) are excluded separately.
var defaultExcludeDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
}

// FileInfo describes a discovered document.
type FileInfo struct {
	Path    string // slash-separated, relative to the workspace root
	AbsPath string
	Size    int64
	ModTime time.Time
}

// Filter decides which relative paths are documents.
type Filter struct {
	exclude    []string
	extensions map[string]struct{}
	maxSize    int64
}

// NewFilter builds a Filter from doublestar exclude patterns and a list of
// extensions (".md"). Extensions compare case-insensitively.
func NewFilter(exclude, extensions []string) (*Filter, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Filter{exclude: exclude, extensions: exts, maxSize: DefaultMaxFileSize}, nil
}

// SetMaxSize changes the size above which a file is not a document.
// Zero or less restores DefaultMaxFileSize.
func (f *Filter) SetMaxSize(n int64) {
	if n <= 0 {
		n = DefaultMaxFileSize
	}
	f.maxSize = n
}

// Oversized reports whether a file of size bytes is too large to index.
func (f *Filter) Oversized(size int64) bool {
	return size > f.maxSize
}

// SkipDir reports whether the directory at rel is outside the document set.
func (f *Filter) SkipDir(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	if hasHiddenSegment(rel) {
		return true
	}
	if _, ok := defaultExcludeDirs[path.Base(rel)]; ok {
		return true
	}
	return f.excluded(rel)
}

// Include reports whether the file at rel is a document.
func (f *Filter) Include(rel string) bool {
	if rel == "" || hasHiddenSegment(rel) {
		return false
	}
	if _, ok := f.extensions[strings.ToLower(path.Ext(rel))]; !ok {
		return false
	}
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		if _, ok := defaultExcludeDirs[seg]; ok {
			return false
		}
	}
	return !f.excluded(rel)
}

func (f *Filter) excluded(rel string) bool {
	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
