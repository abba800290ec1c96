package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Task is the body of an invocation. The context it receives belongs to the
// pool, not to whoever submitted the invocation.
type Task func(ctx context.Context) (any, error)

// Outcome is what an invocation delivers when it finishes.
type Outcome struct {
	Result any
	Err    error
}

// Invocation represents a single command execution queued on the pool.
//
// ID and Command are fixed at creation. The remaining fields are written by the
// worker and may only be read after Done has delivered, or from an observer.
type Invocation struct {
	// ID is the unique UUID v4 for the invocation.
	ID string
	// Command is the command name, e.g. pg_query.
	Command string
	// Timestamps for lifecycle tracking.
	Submitted time.Time
	Started   time.Time
	Finished  time.Time
	// Status tracks the current state (PENDING, PROCESSING, COMPLETED, FAILED).
	Status Status
	// Error holds any error encountered during processing.
	Error error

	task Task
	done chan Outcome
}

func NewInvocation(command string, task Task) *Invocation {
	return &Invocation{
		ID:        uuid.New().String(),
		Command:   command,
		Submitted: time.Now(),
		Status:    StatusPending,
		task:      task,
		done:      make(chan Outcome, 1),
	}
}

// Done delivers the outcome exactly once.
func (i *Invocation) Done() <-chan Outcome {
	return i.done
}

// Duration is the time spent running, excluding queue wait.
func (i *Invocation) Duration() time.Duration {
	if i.Started.IsZero() || i.Finished.IsZero() {
		return 0
	}
	return i.Finished.Sub(i.Started)
}
