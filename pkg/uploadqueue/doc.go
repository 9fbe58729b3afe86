// Package uploadqueue schedules upload tasks under a fixed concurrency ceiling.
//
// Callers enqueue payloads; each becomes a Task in the queued state. The
// Scheduler admits queued tasks first-in first-out into an injected Uploader,
// never running more than MaxConcurrent at once, and records live progress as
// the uploader reports it. A failed attempt sends the task to the back of the
// queue until MaxRetries attempts have been made, after which it ends in the
// error state. Succeeded and failed tasks stay visible until removed or cleared.
//
// # Architecture
//
//   - Store holds the ordered records and validates every status transition.
//   - Scheduler serializes all store mutations under one mutex and, after each
//     mutation, drains scheduling passes until no further task can be admitted.
//   - Each admitted task runs in its own goroutine with a cancellable context and
//     a run token; progress and outcomes from a removed or superseded run are dropped.
//   - Group derives the uploading / queued / completed view from a snapshot.
//   - Subscribe streams an Event per mutation to presentation layers.
//
// # Usage
//
//	s, err := uploadqueue.New(uploader,
//	    uploadqueue.WithMaxConcurrent(3),
//	    uploadqueue.WithMaxRetries(3),
//	    uploadqueue.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	ids, err := s.Enqueue(ctx, payloads...)
//
//	sub := s.Subscribe(ctx)
//	for range sub.Events() {
//	    render(s.View())
//	}
//
// # Retries
//
// Retries are immediate by default. WithBackoff (or Config.RetryBackoff) delays
// re-admission; the task stays queued with RetryAt set and other tasks may be
// admitted ahead of it meanwhile.
//
// # Error Handling
//
//   - ErrTransferFailed wraps the reason of a single failed attempt.
//   - ErrRetriesExhausted is joined into Task.Err of tasks that ended in error.
//   - ErrNotFound reports an id that no longer exists; it is never fatal.
package uploadqueue
