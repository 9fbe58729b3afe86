package uploadqueue

import "time"

const (
	DefaultMaxConcurrent = 3
	DefaultMaxRetries    = 3
)

// Config holds the env-driven scheduler settings.
type Config struct {
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" envDefault:"3"`     // MaxConcurrent caps simultaneous uploads.
	MaxRetries    int           `env:"UPLOAD_MAX_RETRIES" envDefault:"3"`        // MaxRetries caps attempts per task before it ends in error.
	RetryBackoff  time.Duration `env:"UPLOAD_RETRY_BACKOFF" envDefault:"0s"`     // RetryBackoff is the initial exponential retry delay; 0 retries immediately.
	EventBuffer   int           `env:"UPLOAD_EVENT_BUFFER" envDefault:"256"`     // EventBuffer is the per-subscriber event channel size.
	ProgressStep  int           `env:"UPLOAD_PROGRESS_LOG_STEP" envDefault:"25"` // ProgressStep is the percentage step between progress log lines.
}

// NewFromConfig creates a Scheduler from cfg. Options passed explicitly override config values.
func NewFromConfig(cfg Config, u Uploader, opts ...Option) (*Scheduler, error) {
	configOpts := make([]Option, 0, 5+len(opts))
	configOpts = append(configOpts,
		WithMaxConcurrent(cfg.MaxConcurrent),
		WithMaxRetries(cfg.MaxRetries),
		WithEventBuffer(cfg.EventBuffer),
		WithProgressLogStep(cfg.ProgressStep),
	)
	if cfg.RetryBackoff > 0 {
		configOpts = append(configOpts, WithBackoff(ExponentialBackoff{
			InitialInterval: cfg.RetryBackoff,
			JitterFactor:    0.1,
		}))
	}
	configOpts = append(configOpts, opts...)

	return New(u, configOpts...)
}
