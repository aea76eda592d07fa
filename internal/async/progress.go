// Package async tracks indexing that runs in the background of a server,
// so that clients can see how far the index is while it is being built.
package async

import (
	"sync"
	"time"
)

// IndexingStatus represents the overall indexing state.
type IndexingStatus string

const (
	// StatusIndexing indicates a scan is in progress.
	StatusIndexing IndexingStatus = "indexing"
	// StatusReady indicates the index mirrors the workspace.
	StatusReady IndexingStatus = "ready"
	// StatusError indicates the last scan failed.
	StatusError IndexingStatus = "error"
)

// IndexingStage represents the current stage of a scan.
type IndexingStage string

const (
	// StageListing indicates the file discovery phase.
	StageListing IndexingStage = "listing"
	// StageParsing indicates frontmatter parsing.
	StageParsing IndexingStage = "parsing"
	// StageWriting indicates documents are being written to the store.
	StageWriting IndexingStage = "writing"
)

// ProgressSnapshot is an immutable snapshot of indexing progress.
type ProgressSnapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage,omitempty"`
	FilesTotal     int     `json:"files_total"`
	FilesProcessed int     `json:"files_processed"`
	ProgressPct    float64 `json:"progress_pct"`
	Scans          int     `json:"scans"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Progress provides thread-safe tracking of scan progress. A nil *Progress
// ignores every update.
type Progress struct {
	mu sync.RWMutex

	status         IndexingStatus
	stage          IndexingStage
	filesTotal     int
	filesProcessed int
	scans          int
	startTime      time.Time
	errorMessage   string
}

// NewProgress creates a tracker that reports indexing until the first scan
// finishes.
func NewProgress() *Progress {
	return &Progress{
		status:    StatusIndexing,
		stage:     StageListing,
		startTime: time.Now(),
	}
}

// Begin marks the start of a scan.
func (p *Progress) Begin() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusIndexing
	p.stage = StageListing
	p.filesTotal = 0
	p.filesProcessed = 0
	p.errorMessage = ""
	p.startTime = time.Now()
}

// SetStage moves to stage with total files and resets the processed count.
func (p *Progress) SetStage(stage IndexingStage, total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.filesTotal = total
	p.filesProcessed = 0
}

// Advance records n more files processed in the current stage.
func (p *Progress) Advance(n int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filesProcessed += n
	if p.filesProcessed > p.filesTotal {
		p.filesProcessed = p.filesTotal
	}
}

// SetError marks the scan as failed with an error message.
func (p *Progress) SetError(message string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errorMessage = message
}

// SetReady marks the scan as complete.
func (p *Progress) SetReady() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
	p.stage = ""
	p.scans++
}

// IsIndexing returns true while a scan is in progress.
func (p *Progress) IsIndexing() bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusIndexing
}

// Snapshot returns an immutable copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pct float64
	if p.filesTotal > 0 {
		pct = float64(p.filesProcessed) / float64(p.filesTotal) * 100.0
	}

	return ProgressSnapshot{
		Status:         string(p.status),
		Stage:          string(p.stage),
		FilesTotal:     p.filesTotal,
		FilesProcessed: p.filesProcessed,
		ProgressPct:    pct,
		Scans:          p.scans,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errorMessage,
	}
}
