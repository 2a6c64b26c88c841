// Package history keeps a log of init, update and audit runs in a badger
// database so past results can be listed and inspected.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/auditr/pkg/auditr/output"
	"github.com/jamesainslie/auditr/pkg/auditr/stats"
)

// Operation is the workflow a record describes.
type Operation string

const (
	OpInit   Operation = "init"
	OpUpdate Operation = "update"
	OpAudit  Operation = "audit"
)

// MaxChanges caps the change list stored per record.
const MaxChanges = 1000

// Record is one completed run.
type Record struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation Operation       `json:"operation"`
	Root      string          `json:"root"`
	Outcome   string          `json:"outcome"`
	Elapsed   time.Duration   `json:"elapsed"`
	Counts    stats.Counts    `json:"counts"`
	Changes   []output.Change `json:"changes,omitempty"`
	Truncated int             `json:"truncated,omitempty"`
}

// NewRecord builds a record from a finished report.
func NewRecord(op Operation, r *output.Report) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Operation: op,
		Root:      r.Root,
		Outcome:   r.Outcome,
		Elapsed:   r.Elapsed,
		Counts:    r.Counts(),
	}
	changes := r.Changes()
	if len(changes) > MaxChanges {
		rec.Truncated = len(changes) - MaxChanges
		changes = changes[:MaxChanges]
	}
	rec.Changes = changes
	return rec
}
