package uploadqueue_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

type testPayload struct {
	name     string
	size     int64
	released atomic.Int32
}

func (p *testPayload) Name() string { return p.name }
func (p *testPayload) Size() int64  { return p.size }

func (p *testPayload) Release() error {
	p.released.Add(1)
	return nil
}

func payloads(names ...string) []uploadqueue.Payload {
	out := make([]uploadqueue.Payload, len(names))
	for i, n := range names {
		out[i] = &testPayload{name: n, size: int64(len(n)) * 1024}
	}
	return out
}

// call is one attempt handed to the controlled uploader. The test decides the
// outcome by sending on result; cancellation ends the attempt with ctx.Err.
type call struct {
	name     string
	ctx      context.Context
	progress uploadqueue.ProgressFunc
	result   chan error
}

func (c *call) succeed()        { c.result <- nil }
func (c *call) fail(err error)  { c.result <- err }
func (c *call) report(p int)    { c.progress(p) }
func (c *call) cancelled() bool { return c.ctx.Err() != nil }

type controlledUploader struct {
	calls chan *call
}

func newControlledUploader() *controlledUploader {
	return &controlledUploader{calls: make(chan *call, 64)}
}

func (u *controlledUploader) Upload(ctx context.Context, p uploadqueue.Payload, onProgress uploadqueue.ProgressFunc) error {
	c := &call{name: p.Name(), ctx: ctx, progress: onProgress, result: make(chan error, 1)}
	u.calls <- c
	select {
	case err := <-c.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *controlledUploader) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-u.calls:
		return c
	case <-time.After(2 * time.Second):
		require.FailNow(t, "uploader was not called")
		return nil
	}
}

// take collects n attempts keyed by payload name.
func (u *controlledUploader) take(t *testing.T, n int) map[string]*call {
	t.Helper()
	out := make(map[string]*call, n)
	for range n {
		c := u.next(t)
		out[c.name] = c
	}
	return out
}

func (u *controlledUploader) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-u.calls:
		require.FailNow(t, "unexpected upload attempt", c.name)
	case <-time.After(50 * time.Millisecond):
	}
}

func newScheduler(t *testing.T, u uploadqueue.Uploader, opts ...uploadqueue.Option) *uploadqueue.Scheduler {
	t.Helper()
	opts = append([]uploadqueue.Option{uploadqueue.WithLogger(logger.Discard())}, opts...)
	s, err := uploadqueue.New(u, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func byName(tasks []uploadqueue.Task) map[string]uploadqueue.Task {
	out := make(map[string]uploadqueue.Task, len(tasks))
	for _, t := range tasks {
		out[t.Name] = t
	}
	return out
}

func names(tasks []uploadqueue.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}

func statusOf(s *uploadqueue.Scheduler, name string) uploadqueue.Status {
	return byName(s.Snapshot())[name].Status
}

func waitStatus(t *testing.T, s *uploadqueue.Scheduler, name string, want uploadqueue.Status) uploadqueue.Task {
	t.Helper()
	require.Eventually(t, func() bool {
		return statusOf(s, name) == want
	}, 2*time.Second, 5*time.Millisecond, "task %s never reached %s", name, want)
	return byName(s.Snapshot())[name]
}

func nextEvent(t *testing.T, sub *uploadqueue.Subscription) uploadqueue.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no event received")
		return uploadqueue.Event{}
	}
}
