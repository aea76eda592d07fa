package index

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/mdindex/internal/frontmatter"
)

// parseCache remembers parsed documents by path. An entry is only reused
// while the file's size and modification time are unchanged.
type parseCache struct {
	entries *lru.Cache[string, cachedParse]
}

type cachedParse struct {
	size    int64
	modTime time.Time
	doc     frontmatter.Document
}

func newParseCache(size int) *parseCache {
	if size <= 0 {
		return nil
	}
	entries, _ := lru.New[string, cachedParse](size)
	return &parseCache{entries: entries}
}

func (c *parseCache) get(path string, size int64, modTime time.Time) (frontmatter.Document, bool) {
	if c == nil {
		return frontmatter.Document{}, false
	}
	e, ok := c.entries.Get(path)
	if !ok || e.size != size || !e.modTime.Equal(modTime) {
		return frontmatter.Document{}, false
	}
	return e.doc, true
}

func (c *parseCache) put(path string, size int64, modTime time.Time, doc frontmatter.Document) {
	if c == nil {
		return
	}
	c.entries.Add(path, cachedParse{size: size, modTime: modTime, doc: doc})
}

func (c *parseCache) remove(path string) {
	if c == nil {
		return
	}
	c.entries.Remove(path)
}

func (c *parseCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
