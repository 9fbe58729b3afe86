package uploadqueue

import "errors"

var (
	// ErrTransferFailed wraps the reason of a single failed upload attempt.
	// It is recovered locally by re-queueing and only surfaces through Task.Err.
	ErrTransferFailed = errors.New("upload attempt failed")

	// ErrRetriesExhausted marks a task that reached the attempt limit and ended in error.
	ErrRetriesExhausted = errors.New("upload retries exhausted")

	// ErrNotFound is returned when an operation references an id that is no longer queued.
	// It is an expected race between removal and in-flight completion and is never fatal.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidTransition is returned when a mutation would break the task state machine
	// or touch a terminal record.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrNilPayload is returned when enqueueing a nil payload
	ErrNilPayload = errors.New("payload cannot be nil")

	// ErrNilUploader is returned when the scheduler is built without an uploader
	ErrNilUploader = errors.New("uploader cannot be nil")

	// ErrSchedulerClosed is returned by Enqueue after Close
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrSubscriberTooSlow is reported by Subscription.Err when a full buffer got the subscriber dropped
	ErrSubscriberTooSlow = errors.New("subscriber dropped: event buffer full")
)
