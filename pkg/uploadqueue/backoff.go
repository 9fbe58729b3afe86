package uploadqueue

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy delays re-admission of a failed task.
// Implementations must be safe for concurrent use.
//
// Without a strategy a failed task is eligible again immediately.
type BackoffStrategy interface {
	// NextInterval returns the delay before the given attempt is retried.
	// attempt is the number of failed attempts so far, starting at 1.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay geometrically, with optional jitter.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval returns min(InitialInterval * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval).
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = 500 * time.Millisecond
	}
	ceiling := e.MaxInterval
	if ceiling == 0 {
		ceiling = 10 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}

	return time.Duration(min(interval, float64(ceiling)))
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

// NextInterval always returns Interval.
func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}
