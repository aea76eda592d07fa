package watcher

import (
	"sort"
	"time"
)

// Operation is a native file system operation as seen by the debouncer.
type Operation int

const (
	// OpCreate indicates a file was created.
	OpCreate Operation = iota
	// OpModify indicates a file was written.
	OpModify
	// OpDelete indicates a file was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is the coalesced history of one path within a debounce window.
type Change struct {
	Path  string
	First Operation
	Last  Operation
}

// Debouncer coalesces rapid file events so a burst of writes produces one
// event. Operations on the same path are merged as follows:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
//
// The window restarts with every event, but a pending change is never held
// longer than maxWaitFactor windows. A Debouncer is owned by a single
// goroutine.
type Debouncer struct {
	window  time.Duration
	pending map[string]*Change
	timer   *time.Timer
	armed   bool
	oldest  time.Time
}

const maxWaitFactor = 10

// NewDebouncer creates a debouncer with the given window. A window of zero
// or less never arms a timer; the owner drains after every Add.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*Change),
	}
}

// Add records op for path.
func (d *Debouncer) Add(path string, op Operation) {
	existing, ok := d.pending[path]
	switch {
	case !ok:
		d.pending[path] = &Change{Path: path, First: op, Last: op}
	case existing.First == OpCreate && op == OpDelete:
		delete(d.pending, path)
	default:
		existing.Last = op
	}
	d.schedule()
}

// Immediate reports whether pending changes should be drained right away.
func (d *Debouncer) Immediate() bool {
	return d.window <= 0
}

// Len returns the number of paths with pending changes.
func (d *Debouncer) Len() int {
	return len(d.pending)
}

// C returns a channel that fires when the pending changes are due, or nil
// when nothing is scheduled.
func (d *Debouncer) C() <-chan time.Time {
	if !d.armed {
		return nil
	}
	return d.timer.C
}

// Drain returns the pending changes sorted by path and clears them.
func (d *Debouncer) Drain() []Change {
	d.disarm()
	if len(d.pending) == 0 {
		return nil
	}

	changes := make([]Change, 0, len(d.pending))
	for _, c := range d.pending {
		changes = append(changes, *c)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	d.pending = make(map[string]*Change)
	return changes
}

// Reset discards pending changes.
func (d *Debouncer) Reset() {
	d.disarm()
	d.pending = make(map[string]*Change)
}

// Stop releases the timer.
func (d *Debouncer) Stop() {
	d.disarm()
}

func (d *Debouncer) schedule() {
	if d.window <= 0 {
		return
	}
	if len(d.pending) == 0 {
		d.disarm()
		return
	}

	now := time.Now()
	if !d.armed {
		d.oldest = now
	}
	deadline := now.Add(d.window)
	if limit := d.oldest.Add(maxWaitFactor * d.window); deadline.After(limit) {
		deadline = limit
	}

	wait := time.Until(deadline)
	if d.timer == nil {
		d.timer = time.NewTimer(wait)
	} else {
		d.timer.Reset(wait)
	}
	d.armed = true
}

func (d *Debouncer) disarm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}
