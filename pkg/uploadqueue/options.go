package uploadqueue

import "log/slog"

// Option configures a Scheduler. Invalid values are ignored and the default is kept.
type Option func(*options)

type options struct {
	maxConcurrent int
	maxRetries    int
	backoff       BackoffStrategy
	eventBuffer   int
	progressStep  int
	logger        *slog.Logger
}

func defaultOptions() *options {
	return &options{
		maxConcurrent: DefaultMaxConcurrent,
		maxRetries:    DefaultMaxRetries,
		eventBuffer:   256,
		progressStep:  25,
		logger:        slog.Default(),
	}
}

// WithMaxConcurrent sets how many tasks may be uploading at the same time.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithMaxRetries sets the number of attempts a task gets before it ends in error.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithBackoff delays re-admission of failed tasks.
// The default is no delay: a failed task re-enters the queue immediately.
func WithBackoff(b BackoffStrategy) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// WithEventBuffer sets the channel buffer of each subscription.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithProgressLogStep sets the percentage step between debug progress log lines per attempt.
func WithProgressLogStep(step int) Option {
	return func(o *options) {
		if step > 0 && step <= 100 {
			o.progressStep = step
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
