// Package history records generate runs and their per-size outcomes so
// that past builds can be listed and compared.
package history

import "time"

// Status is the outcome of a run.
type Status string

const (
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusPartial Status = "partial" // some sizes failed
	StatusFailed  Status = "failed"
)

// Run is one generate invocation.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time // zero while running
	Source   string
	Badge    string
	Idioms   string
	Prefix   string
	Target   string
	Entries  int
	Status   Status
	Error    string
}

// Output is the outcome of rendering one pixel size within a run.
type Output struct {
	Size     int
	Path     string
	Duration time.Duration
	Error    string
}

// Store abstracts run history storage.
type Store interface {
	// Write
	Begin(run Run) error
	Finish(id string, status Status, errMsg string, outputs []Output) error

	// Read
	Runs(limit int) ([]Run, error) // newest first, 0 = all
	Outputs(runID string) ([]Output, error)

	// Maintenance
	Clear() error

	// Metadata
	Path() string
	Close() error
}
