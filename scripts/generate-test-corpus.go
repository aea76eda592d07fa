//go:build ignore

// Package main generates a synthetic Markdown workspace for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of documents to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Uint64("seed", 42, "Random seed for reproducibility")
	broken    = flag.Int("broken", 1, "Percentage of documents with unterminated frontmatter")
)

const projectConfig = `kinds:
  - kind: issue
    properties: [status, priority, assignee]
  - kind: meeting
    properties: [date, attendees]
rules:
  - path: "issues/**"
    kind: issue
  - path: "meetings/*.md"
    kind: meeting
paths:
  exclude:
    - "archive/**"
`

var (
	statuses   = []string{"open", "in-progress", "blocked", "closed"}
	priorities = []string{"low", "medium", "high", "urgent"}
	people     = []string{"ana", "bo", "chen", "dara", "eli", "fatima", "gus"}
	areas      = []string{"auth", "billing", "search", "sync", "storage", "ui", "api"}
	verbs      = []string{"fails", "is slow", "crashes", "leaks memory", "times out", "returns stale data"}
	topics     = []string{"Roadmap", "Retro", "Standup", "Design review", "Incident", "Planning"}
)

var rng *rand.Rand

func main() {
	flag.Parse()
	rng = rand.New(rand.NewPCG(*seed, *seed))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(*outputDir, ".mdindex.yaml"), []byte(projectConfig), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d documents in %s...\n", *numFiles, *outputDir)

	issues := *numFiles * 50 / 100
	meetings := *numFiles * 20 / 100
	notes := *numFiles * 20 / 100
	archived := *numFiles - issues - meetings - notes

	generated := 0
	for i := 0; i < issues; i++ {
		generated += write(fmt.Sprintf("issues/%s/%04d.md", pick(areas), i), issueDoc(i))
	}
	for i := 0; i < meetings; i++ {
		generated += write(fmt.Sprintf("meetings/%04d.md", i), meetingDoc(i))
	}
	for i := 0; i < notes; i++ {
		generated += write(fmt.Sprintf("notes/%s/note-%04d.md", pick(areas), i), noteDoc(i))
	}
	for i := 0; i < archived; i++ {
		generated += write(fmt.Sprintf("archive/%04d.md", i), noteDoc(i))
	}

	fmt.Printf("Generated %d documents successfully.\n", generated)
}

func pick(pool []string) string {
	return pool[rng.IntN(len(pool))]
}

func write(rel, content string) int {
	if rng.IntN(100) < *broken {
		content = "---\ntitle: never closed\n" + content
	}
	p := filepath.Join(*outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", filepath.Dir(p), err)
		return 0
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", rel, err)
		return 0
	}
	return 1
}

func issueDoc(i int) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s %s (#%d)\n", strings.ToUpper(pick(areas)[:1])+pick(areas)[1:], pick(verbs), i)
	fmt.Fprintf(&b, "status: %s\n", pick(statuses))
	fmt.Fprintf(&b, "priority: %s\n", pick(priorities))
	if rng.IntN(3) > 0 {
		fmt.Fprintf(&b, "assignee: %s\n", pick(people))
	}
	fmt.Fprintf(&b, "estimate: %d\n", 1+rng.IntN(8))
	b.WriteString("---\n\n")
	b.WriteString(paragraphs(2 + rng.IntN(4)))
	return b.String()
}

func meetingDoc(i int) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "date: 2024-%02d-%02d\n", 1+rng.IntN(12), 1+rng.IntN(28))
	fmt.Fprintf(&b, "attendees: %s, %s\n", pick(people), pick(people))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s %d\n\n", pick(topics), i)
	b.WriteString(paragraphs(1 + rng.IntN(3)))
	return b.String()
}

func noteDoc(i int) string {
	var b strings.Builder
	if rng.IntN(2) == 0 {
		b.WriteString("---\nkind: note\n")
		fmt.Fprintf(&b, "tags: %s\n", pick(areas))
		b.WriteString("---\n\n")
	}
	fmt.Fprintf(&b, "# Notes on %s %d\n\n", pick(areas), i)
	b.WriteString(paragraphs(1 + rng.IntN(6)))
	return b.String()
}

func paragraphs(n int) string {
	var b strings.Builder
	for p := 0; p < n; p++ {
		words := 20 + rng.IntN(60)
		for w := 0; w < words; w++ {
			if w > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(pick(areas))
		}
		b.WriteString(".\n\n")
	}
	return b.String()
}
