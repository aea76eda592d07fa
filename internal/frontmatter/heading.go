package frontmatter

import (
	"bufio"
	"strings"
)

// FirstHeading returns the text of the first level-one ATX heading in body,
// ignoring fenced code blocks.
func FirstHeading(body string) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fence := ""
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, fence[:1]) == "" {
				fence = ""
			}
			continue
		}
		if indent <= 3 {
			if f := fenceOpen(trimmed); f != "" {
				fence = f
				continue
			}
		}
		if indent > 3 {
			continue
		}

		if trimmed == "#" {
			continue
		}
		if !strings.HasPrefix(trimmed, "# ") && !strings.HasPrefix(trimmed, "#\t") {
			continue
		}

		text := stripClosingSequence(strings.TrimSpace(trimmed[1:]))
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// fenceOpen returns the fence marker if line opens a fenced code block.
func fenceOpen(line string) string {
	for _, c := range []string{"`", "~"} {
		n := 0
		for n < len(line) && line[n:n+1] == c {
			n++
		}
		if n >= 3 {
			return strings.Repeat(c, n)
		}
	}
	return ""
}

// stripClosingSequence removes an optional trailing run of '#' that is
// separated from the heading text by whitespace.
func stripClosingSequence(text string) string {
	stripped := strings.TrimRight(text, "#")
	if stripped == text {
		return text
	}
	if stripped == "" {
		return ""
	}
	if last := stripped[len(stripped)-1]; last == ' ' || last == '\t' {
		return strings.TrimSpace(stripped)
	}
	return text
}
