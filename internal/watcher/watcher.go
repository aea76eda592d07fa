package watcher

import (
	"context"
	"time"

	"github.com/Aman-CERP/mdindex/internal/scanner"
)

// EventType classifies a change to one document.
type EventType int

const (
	// EventCreated indicates a document appeared.
	EventCreated EventType = iota
	// EventModified indicates an existing document changed.
	EventModified
	// EventDeleted indicates a document is gone.
	EventDeleted
	// EventScanRequired indicates changes were lost or cannot be attributed
	// to single files. Path is empty.
	EventScanRequired
)

// String returns a human-readable representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventScanRequired:
		return "scan_required"
	default:
		return "unknown"
	}
}

// Event is one change notification.
type Event struct {
	Type EventType
	// Path is slash-separated and relative to the watched root.
	Path string
}

// Synchronizer produces a stream of document changes for one workspace.
type Synchronizer interface {
	// Start begins a session and returns its event stream. A session already
	// running is stopped first. The stream closes when ctx is done or Stop
	// is called. If watching cannot begin, Start returns an error and no
	// stream.
	Start(ctx context.Context) (<-chan Event, error)

	// Stop ends the current session and waits for it to finish.
	// Safe to call multiple times, and before Start.
	Stop() error
}

// Options configures an FSWatcher.
type Options struct {
	// Filter selects documents. Nil means every non-hidden .md or
	// .markdown file.
	Filter *scanner.Filter

	// Debounce is how long changes to a path are collected before being
	// emitted. Zero emits after every native event.
	Debounce time.Duration

	// BufferSize is the capacity of the event channel.
	// Default: 256
	BufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:   100 * time.Millisecond,
		BufferSize: 256,
	}
}

// WithDefaults returns options with defaults applied for unset values.
// A zero Debounce is meaningful and is left alone.
func (o Options) WithDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultOptions().BufferSize
	}
	if o.Debounce < 0 {
		o.Debounce = 0
	}
	if o.Filter == nil {
		o.Filter, _ = scanner.NewFilter(nil, []string{".md", ".markdown"})
	}
	return o
}
