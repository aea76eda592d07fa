// Package glob matches slash-separated relative paths against kind rule
// patterns.
//
// Two wildcards are recognised:
//
//   - any run of characters inside one path segment (never "/")
//     **  as a whole segment, zero or more whole segments
//
// A "**" embedded in a longer segment such as "a**b" behaves like "*".
// Because "**" may expand to nothing, "notes/**" matches "notes" itself and
// "a/**/b" matches "a/b".
package glob

import (
	"fmt"
	"path"
	"strings"
)

const globstar = "**"

// Match reports whether p matches pattern.
func Match(pattern, p string) bool {
	return matchSegments(split(pattern), split(p))
}

// Valid reports whether pattern is usable as a rule pattern.
// Patterns must be non-empty and relative.
func Valid(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern is empty")
	}
	if strings.HasPrefix(pattern, "/") || path.IsAbs(pattern) {
		return fmt.Errorf("pattern %q must be relative to the workspace root", pattern)
	}
	return nil
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

func matchSegments(pat, cand []string) bool {
	star := -1
	for i, seg := range pat {
		if seg == globstar {
			star = i
			break
		}
	}

	if star < 0 {
		if len(pat) != len(cand) {
			return false
		}
		for i := range pat {
			if !matchSegment(pat[i], cand[i]) {
				return false
			}
		}
		return true
	}

	prefix, suffix := pat[:star], pat[star+1:]
	if len(cand) < len(prefix) {
		return false
	}
	if !matchSegments(prefix, cand[:len(prefix)]) {
		return false
	}

	// The globstar consumes cand[len(prefix):j]; the suffix must match the rest.
	for j := len(prefix); j <= len(cand); j++ {
		if matchSegments(suffix, cand[j:]) {
			return true
		}
	}
	return false
}

// matchSegment matches one segment where '*' spans any run of characters.
func matchSegment(pat, s string) bool {
	px, sx := 0, 0
	nextPx, nextSx := -1, -1
	for px < len(pat) || sx < len(s) {
		if px < len(pat) {
			if pat[px] == '*' {
				nextPx, nextSx = px, sx+1
				px++
				continue
			}
			if sx < len(s) && pat[px] == s[sx] {
				px++
				sx++
				continue
			}
		}
		if nextPx >= 0 && nextSx <= len(s) {
			px, sx = nextPx, nextSx
			continue
		}
		return false
	}
	return true
}
