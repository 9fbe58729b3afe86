package uploadqueue

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// IsTerminal reports whether no further automatic transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusUploading, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Payload is an opaque handle to the thing being uploaded.
// The queue only reads its name and size for display.
type Payload interface {
	Name() string
	Size() int64
}

// Releaser is implemented by payloads holding resources (spool files, buffers)
// that must be freed once their record leaves the queue.
type Releaser interface {
	Release() error
}

// Task is a point-in-time copy of one queue record.
type Task struct {
	ID         string    `json:"id"`
	Payload    Payload   `json:"-"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Status     Status    `json:"status"`
	Progress   int       `json:"progress"`
	Attempt    int       `json:"attempt"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	RetryAt    time.Time `json:"retry_at,omitzero"`

	err error
}

// Err returns the last failure recorded for the task, if any.
// Terminal failures match ErrRetriesExhausted with errors.Is.
func (t Task) Err() error {
	return t.err
}

// IsRetry reports whether the task is waiting for another attempt after a failure.
func (t Task) IsRetry() bool {
	return t.Status == StatusQueued && t.Attempt > 0
}

// transitions lists every allowed status change.
// Terminal statuses have no outgoing edges.
var transitions = map[Status][]Status{
	StatusQueued:    {StatusUploading},
	StatusUploading: {StatusSuccess, StatusQueued, StatusError},
}

func canTransition(from, to Status) bool {
	if from == to {
		return !from.IsTerminal()
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func clampProgress(p int) int {
	return min(max(p, 0), 100)
}
