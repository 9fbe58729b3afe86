package uploadqueue

import (
	"context"
	"sync"
	"time"
)

// EventType names the store mutation an Event reports.
type EventType string

const (
	EventEnqueued  EventType = "enqueued"
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventSucceeded EventType = "succeeded"
	EventRetrying  EventType = "retrying"
	EventFailed    EventType = "failed"
	EventRemoved   EventType = "removed"
	EventCleared   EventType = "cleared"
)

// Event reports one applied mutation together with the record state right after it.
type Event struct {
	Type EventType `json:"type"`
	Task Task      `json:"task"`
	At   time.Time `json:"at"`
}

// Subscription receives queue events in the order mutations were applied.
//
// Delivery never blocks the scheduler: a subscriber whose buffer is full is
// dropped and its channel closed. Consumers that need the full state should
// call Scheduler.Snapshot on each event and resubscribe when the channel closes.
type Subscription struct {
	ch     chan Event
	done   chan struct{}
	closed bool
	reason error
	mu     sync.RWMutex
	hub    *notifier
}

// Events returns the channel events are delivered on. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Err reports why the subscription ended: ErrSubscriberTooSlow, ErrSchedulerClosed,
// the context error, or nil after Close or while still active.
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	if s.hub != nil {
		s.hub.unsubscribe(s, nil)
		return nil
	}
	s.close(nil)
	return nil
}

func (s *Subscription) close(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		close(s.done)
		s.closed = true
		s.reason = reason
	}
}

func (s *Subscription) send(ev Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// notifier fans events out to subscriptions without blocking the publisher.
type notifier struct {
	subs       map[*Subscription]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

func newNotifier(bufferSize int) *notifier {
	return &notifier{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

func (n *notifier) subscribe(ctx context.Context) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	sub := &Subscription{
		ch:   make(chan Event, n.bufferSize),
		done: make(chan struct{}),
	}
	if n.closed {
		sub.close(ErrSchedulerClosed)
		return sub
	}

	sub.hub = n
	n.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			select {
			case <-ctx.Done():
				n.unsubscribe(sub, ctx.Err())
			case <-sub.done:
			}
		}()
	}

	return sub
}

func (n *notifier) publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}

	for sub := range n.subs {
		if !sub.send(ev) {
			// Slow consumer; removal takes the write lock, so it can't happen here.
			go n.unsubscribe(sub, ErrSubscriberTooSlow)
		}
	}
}

func (n *notifier) unsubscribe(sub *Subscription, reason error) {
	n.mu.Lock()
	delete(n.subs, sub)
	n.mu.Unlock()

	sub.close(reason)
}

func (n *notifier) close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	for sub := range n.subs {
		sub.close(ErrSchedulerClosed)
	}
	clear(n.subs)
	n.mu.Unlock()

	n.wg.Wait()
}
