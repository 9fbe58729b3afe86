package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// Publisher is the subset of redis.UniversalClient used by EventRelay.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Subscriber is a source of queue events, usually *uploadqueue.Scheduler.
type Subscriber interface {
	Subscribe(ctx context.Context) *uploadqueue.Subscription
}

// EventRelay forwards queue events to a Redis pub/sub channel as JSON so other
// processes can follow upload progress.
type EventRelay struct {
	pub     Publisher
	channel string
	log     *slog.Logger
}

// RelayOption configures EventRelay.
type RelayOption func(*EventRelay)

// WithRelayLogger sets the relay logger.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *EventRelay) {
		if l != nil {
			r.log = l
		}
	}
}

// NewEventRelay creates a relay publishing to channel.
func NewEventRelay(pub Publisher, channel string, opts ...RelayOption) (*EventRelay, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if channel == "" {
		channel = "polaris:uploads"
	}

	r := &EventRelay{pub: pub, channel: channel, log: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("redis_relay"))
	return r, nil
}

// Run returns a function suitable for errgroup. It relays events until ctx is
// done or the scheduler closes, subscribing again whenever the subscription is
// dropped for being too slow. Publish failures are logged and skipped.
func (r *EventRelay) Run(ctx context.Context, src Subscriber) func() error {
	return func() error {
		r.log.InfoContext(ctx, "event relay started", slog.String("channel", r.channel))
		for {
			sub := src.Subscribe(ctx)
			for ev := range sub.Events() {
				if ctx.Err() != nil {
					break
				}
				r.Publish(ctx, ev)
			}
			_ = sub.Close()

			if !errors.Is(sub.Err(), uploadqueue.ErrSubscriberTooSlow) {
				r.log.Info("event relay stopped")
				return nil
			}
			r.log.WarnContext(ctx, "event relay fell behind, resubscribing")
		}
	}
}

// Publish sends a single event.
func (r *EventRelay) Publish(ctx context.Context, ev uploadqueue.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to encode queue event",
			logger.TaskID(ev.Task.ID),
			logger.Event(string(ev.Type)),
			logger.Error(err))
		return
	}

	if err := r.pub.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.WarnContext(ctx, "failed to publish queue event",
			logger.TaskID(ev.Task.ID),
			logger.Event(string(ev.Type)),
			logger.Error(err))
	}
}
