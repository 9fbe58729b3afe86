package uploadqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/polaris/pkg/logger"
)

// run tracks one in-flight upload attempt. The token identifies the attempt so
// callbacks from an orphaned or superseded attempt can be told apart.
type run struct {
	token   uint64
	cancel  context.CancelFunc
	sampler *logger.ProgressSampler
	started time.Time
}

// Scheduler admits queued tasks into the uploader under a concurrency ceiling
// and drives every task through queued → uploading → success | queued (retry) | error.
//
// All store mutations and the scheduling passes they trigger run under a single
// mutex, so completions arriving together can never over-admit. Uploads run in
// their own goroutines and report back through the same lock.
type Scheduler struct {
	mu       sync.Mutex
	store    *Store
	uploader Uploader
	opts     *options
	log      *slog.Logger
	events   *notifier
	runs     map[string]*run
	timers   map[*time.Timer]struct{}
	token    uint64
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler that uploads through u.
func New(u Uploader, opts ...Option) (*Scheduler, error) {
	if u == nil {
		return nil, ErrNilUploader
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:    NewStore(),
		uploader: u,
		opts:     o,
		log:      o.logger.With(logger.Component("uploadqueue")),
		events:   newNotifier(o.eventBuffer),
		runs:     make(map[string]*run),
		timers:   make(map[*time.Timer]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// MaxConcurrent returns the configured concurrency ceiling.
func (s *Scheduler) MaxConcurrent() int { return s.opts.maxConcurrent }

// MaxRetries returns the configured attempt limit.
func (s *Scheduler) MaxRetries() int { return s.opts.maxRetries }

// Enqueue appends one queued task per payload and immediately admits as many
// as there are free slots. Either every payload is enqueued or none is.
func (s *Scheduler) Enqueue(ctx context.Context, payloads ...Payload) ([]string, error) {
	for _, p := range payloads {
		if p == nil {
			return nil, ErrNilPayload
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSchedulerClosed
	}

	ids := s.store.Enqueue(payloads...)
	for _, id := range ids {
		if task, err := s.store.Get(id); err == nil {
			s.emit(EventEnqueued, task)
		}
	}

	s.log.DebugContext(ctx, "tasks enqueued", slog.Int("count", len(ids)))

	s.drain()
	return ids, nil
}

// Snapshot returns a consistent copy of every task in insertion order.
func (s *Scheduler) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Get returns a copy of one task.
func (s *Scheduler) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// View returns the current snapshot grouped for display.
func (s *Scheduler) View() Groups {
	return Group(s.Snapshot())
}

// Remove deletes a task in any state.
//
// Removing an uploading task cancels its upload context and frees its slot at
// once; whatever the orphaned upload reports afterwards is ignored. A missing id
// yields ErrNotFound and changes nothing.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	task, err := s.store.Remove(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if r, ok := s.runs[id]; ok {
		delete(s.runs, id)
		r.cancel()
		s.log.Info("uploading task removed, slot released",
			logger.TaskID(id),
			logger.Attempt(task.Attempt))
	}

	s.emit(EventRemoved, task)
	s.drain()
	s.mu.Unlock()

	s.release(task)
	return nil
}

// ClearTerminal deletes every succeeded and failed task and returns how many were removed.
func (s *Scheduler) ClearTerminal() int {
	s.mu.Lock()
	removed := s.store.ClearTerminal()
	for _, task := range removed {
		s.emit(EventCleared, task)
	}
	s.drain()
	s.mu.Unlock()

	for _, task := range removed {
		s.release(task)
	}
	return len(removed)
}

// Subscribe returns a subscription receiving an Event for every mutation.
// It ends when ctx is done, when Close is called on it, or when the scheduler closes.
func (s *Scheduler) Subscribe(ctx context.Context) *Subscription {
	return s.events.subscribe(ctx)
}

// Close stops admitting tasks, cancels in-flight uploads and waits for their
// goroutines to return. Interrupted tasks go back to queued without losing an attempt.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	for id, r := range s.runs {
		r.cancel()
		_, _ = s.store.Update(id, func(t *Task) {
			t.Status = StatusQueued
			t.Progress = 0
		})
	}
	clear(s.runs)

	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)

	s.cancel()
	s.mu.Unlock()

	s.log.Info("scheduler stopping, waiting for uploads to return")
	s.wg.Wait()
	s.events.close()
	s.log.Info("scheduler stopped")

	return nil
}

// Run returns a function suitable for errgroup that closes the scheduler once ctx is done.
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		s.log.Info("scheduler started",
			slog.Int("max_concurrent", s.opts.maxConcurrent),
			slog.Int("max_retries", s.opts.maxRetries))

		<-ctx.Done()

		return s.Close()
	}
}

// drain runs scheduling passes until one admits nothing. Callers hold s.mu.
func (s *Scheduler) drain() {
	for s.pass() > 0 {
	}
}

// pass admits queued tasks into free slots in admission order and returns how
// many it started. A second pass without an intervening mutation starts none.
func (s *Scheduler) pass() int {
	if s.closed {
		return 0
	}

	slots := s.opts.maxConcurrent - s.store.Count(StatusUploading)
	now := time.Now()
	admitted := 0
	for ; slots > 0; slots-- {
		next, ok := s.store.NextQueued(now)
		if !ok || !s.start(next) {
			break
		}
		admitted++
	}
	return admitted
}

func (s *Scheduler) start(next Task) bool {
	task, err := s.store.Update(next.ID, func(t *Task) {
		t.Status = StatusUploading
		t.Progress = 0
		t.RetryAt = time.Time{}
	})
	if err != nil {
		s.log.Error("failed to start upload", logger.TaskID(next.ID), logger.Error(err))
		return false
	}

	s.token++
	ctx, cancel := context.WithCancel(s.ctx)
	r := &run{
		token:   s.token,
		cancel:  cancel,
		sampler: logger.NewProgressSampler(s.opts.progressStep),
		started: time.Now(),
	}
	s.runs[task.ID] = r
	s.emit(EventStarted, task)

	s.log.Info("upload started",
		logger.TaskID(task.ID),
		slog.String("name", task.Name),
		logger.Attempt(task.Attempt+1))

	s.wg.Add(1)
	go s.execute(ctx, task, r.token)

	return true
}

func (s *Scheduler) execute(ctx context.Context, task Task, token uint64) {
	defer s.wg.Done()

	err := s.invoke(ctx, task, token)
	s.finish(task.ID, token, err)
}

func (s *Scheduler) invoke(ctx context.Context, task Task, token uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in uploader: %v", r)
			s.log.Error("uploader panicked",
				logger.TaskID(task.ID),
				slog.Any("panic", r))
		}
	}()

	return s.uploader.Upload(ctx, task.Payload, func(percent int) {
		s.progress(task.ID, token, percent)
	})
}

func (s *Scheduler) progress(id string, token uint64, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok || r.token != token {
		return
	}

	current, err := s.store.Get(id)
	if err != nil {
		return
	}
	percent = clampProgress(percent)
	if percent <= current.Progress {
		return
	}

	task, err := s.store.Update(id, func(t *Task) { t.Progress = percent })
	if err != nil {
		return
	}
	s.emit(EventProgress, task)

	if r.sampler.ShouldLog(percent) {
		s.log.Debug("upload progress",
			logger.TaskID(id),
			logger.Progress(percent))
	}

	s.drain()
}

func (s *Scheduler) finish(id string, token uint64, uploadErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok || r.token != token {
		s.log.Debug("discarding result of orphaned upload",
			logger.TaskID(id),
			logger.Error(uploadErr))
		return
	}
	delete(s.runs, id)
	r.cancel()

	elapsed := time.Since(r.started)
	if uploadErr == nil {
		s.succeed(id, elapsed)
	} else {
		s.fail(id, uploadErr, elapsed)
	}

	s.drain()
}

func (s *Scheduler) succeed(id string, elapsed time.Duration) {
	task, err := s.store.Update(id, func(t *Task) {
		t.Status = StatusSuccess
		t.Progress = 100
	})
	if err != nil {
		s.log.Error("failed to complete task", logger.TaskID(id), logger.Error(err))
		return
	}
	s.emit(EventSucceeded, task)

	s.log.Info("upload completed",
		logger.TaskID(id),
		logger.Attempt(task.Attempt+1),
		logger.Duration(elapsed))
}

// fail records a failed attempt: the task goes back to the end of the queue
// while attempts remain, otherwise it ends in error.
func (s *Scheduler) fail(id string, cause error, elapsed time.Duration) {
	attemptErr := fmt.Errorf("%w: %w", ErrTransferFailed, cause)
	now := time.Now()

	var delay time.Duration
	task, err := s.store.Update(id, func(t *Task) {
		t.Attempt++
		if t.Attempt < s.opts.maxRetries {
			t.Status = StatusQueued
			t.Progress = 0
			t.err = attemptErr
			if s.opts.backoff != nil {
				if delay = s.opts.backoff.NextInterval(t.Attempt); delay > 0 {
					t.RetryAt = now.Add(delay)
				}
			}
		} else {
			t.Status = StatusError
			t.err = errors.Join(ErrRetriesExhausted, attemptErr)
		}
		t.LastError = t.err.Error()
	})
	if err != nil {
		s.log.Error("failed to record upload failure", logger.TaskID(id), logger.Error(err))
		return
	}

	if task.Status == StatusError {
		s.emit(EventFailed, task)
		s.log.Error("upload failed, retries exhausted",
			logger.TaskID(id),
			logger.Attempt(task.Attempt),
			logger.Duration(elapsed),
			logger.Error(cause))
		return
	}

	s.emit(EventRetrying, task)
	s.log.Warn("upload attempt failed, task re-queued",
		logger.TaskID(id),
		logger.Attempt(task.Attempt),
		slog.Int("max_retries", s.opts.maxRetries),
		slog.Duration("retry_in", delay),
		logger.Duration(elapsed),
		logger.Error(cause))

	if delay > 0 {
		s.wakeAfter(delay)
	}
}

// wakeAfter schedules a pass once a delayed retry becomes eligible. Callers hold s.mu.
func (s *Scheduler) wakeAfter(d time.Duration) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.timers, t)
		s.drain()
	})
	s.timers[t] = struct{}{}
}

func (s *Scheduler) emit(typ EventType, task Task) {
	s.events.publish(Event{Type: typ, Task: task, At: time.Now()})
}

func (s *Scheduler) release(task Task) {
	r, ok := task.Payload.(Releaser)
	if !ok {
		return
	}
	if err := r.Release(); err != nil {
		s.log.Warn("failed to release payload", logger.TaskID(task.ID), logger.Error(err))
	}
}
