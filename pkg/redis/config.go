package redis

import "time"

// Config configures the optional Redis connection. An empty ConnectionURL
// disables every Redis-backed feature.
type Config struct {
	// ConnectionURL is in the format "redis://:password@localhost:6379/0".
	ConnectionURL string `env:"REDIS_URL"`
	// RetryAttempts is the number of connection attempts.
	RetryAttempts int `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	// ConnectTimeout bounds all attempts together.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// EventChannel is the pub/sub channel queue events are published to.
	EventChannel string `env:"REDIS_EVENT_CHANNEL" envDefault:"polaris:uploads"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
