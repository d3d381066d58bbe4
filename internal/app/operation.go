package app

import (
	"time"
)

// Operation describes the CLI command being run. Its ID tags every log
// line the command writes.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "running", "success" or "error"
	StartedAt  time.Time
}

// NewOperation creates an operation started at now. The ID is the UTC
// start time, which sorts log lines of successive commands.
func NewOperation(name, parameters string, now time.Time) *Operation {
	return &Operation{
		ID:         now.UTC().Format("20060102T150405Z"),
		Name:       name,
		Parameters: parameters,
		Status:     "running",
		StartedAt:  now,
	}
}

// Finish records the outcome of the operation and returns how long it ran.
func (op *Operation) Finish(err error, now time.Time) time.Duration {
	if err != nil {
		op.Status = "error"
	} else {
		op.Status = "success"
	}
	return now.Sub(op.StartedAt)
}

// Done reports whether Finish has been called.
func (op *Operation) Done() bool {
	return op.Status != "running"
}
