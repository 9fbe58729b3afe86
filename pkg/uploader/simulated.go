package uploader

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// Simulated pretends to upload: it reports progress in ten equal steps spread
// over a random duration and then fails with a fixed probability.
// It stands in for a real backend in demos and load tests.
type Simulated struct {
	minDuration time.Duration
	maxDuration time.Duration
	failureRate float64
	ticks       int
}

// SimulatedOption configures Simulated.
type SimulatedOption func(*Simulated)

// WithSimulatedDuration sets the range each attempt's duration is drawn from.
func WithSimulatedDuration(minDuration, maxDuration time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if minDuration > 0 && maxDuration >= minDuration {
			s.minDuration, s.maxDuration = minDuration, maxDuration
		}
	}
}

// WithFailureRate sets the probability in [0,1] that an attempt fails.
func WithFailureRate(rate float64) SimulatedOption {
	return func(s *Simulated) {
		if rate >= 0 && rate <= 1 {
			s.failureRate = rate
		}
	}
}

// NewSimulated returns an uploader taking 1 to 5 seconds per attempt with a 20% failure rate.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		minDuration: time.Second,
		maxDuration: 5 * time.Second,
		failureRate: 0.2,
		ticks:       10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Upload(ctx context.Context, _ uploadqueue.Payload, onProgress uploadqueue.ProgressFunc) error {
	total := s.minDuration
	if spread := s.maxDuration - s.minDuration; spread > 0 {
		total += rand.N(spread)
	}
	tick := time.NewTicker(max(total/time.Duration(s.ticks), time.Millisecond))
	defer tick.Stop()

	step := 100 / s.ticks
	for i := 1; i <= s.ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
		if onProgress != nil {
			onProgress(i * step)
		}
	}

	if rand.Float64() < s.failureRate {
		return ErrSimulatedFailure
	}
	return nil
}

// Healthcheck always succeeds.
func (s *Simulated) Healthcheck(context.Context) error { return nil }
