package uploadqueue

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// record is the stored form of a task. The ticket orders admission: it is
// assigned every time the record enters the queued state, so a retried task
// lines up behind everything that was queued before its failure.
type record struct {
	task   Task
	ticket uint64
}

// Store holds the ordered set of task records and is their only mutator.
//
// Store is not safe for concurrent use. Scheduler serializes every call under
// its own lock together with the scheduling pass.
type Store struct {
	records []*record
	index   map[string]*record
	ticket  uint64
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[string]*record),
		now:   time.Now,
	}
}

func (s *Store) nextTicket() uint64 {
	s.ticket++
	return s.ticket
}

// Enqueue appends one queued record per payload, preserving order, and returns the assigned ids.
func (s *Store) Enqueue(payloads ...Payload) []string {
	now := s.now()
	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		rec := &record{
			task: Task{
				ID:         uuid.NewString(),
				Payload:    p,
				Name:       p.Name(),
				Size:       p.Size(),
				Status:     StatusQueued,
				EnqueuedAt: now,
				UpdatedAt:  now,
			},
			ticket: s.nextTicket(),
		}
		s.records = append(s.records, rec)
		s.index[rec.task.ID] = rec
		ids = append(ids, rec.task.ID)
	}
	return ids
}

// Snapshot returns a copy of all records in insertion order.
func (s *Store) Snapshot() []Task {
	out := make([]Task, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.task
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Get returns a copy of one record.
func (s *Store) Get(id string) (Task, error) {
	rec, ok := s.index[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return rec.task, nil
}

// Update applies mutate to a copy of the record and stores the result if it is a valid transition.
//
// Identity fields cannot be changed and progress is clamped to [0,100]. Terminal records reject
// any change. Moving a record back to queued sends it to the back of the admission order.
func (s *Store) Update(id string, mutate func(*Task)) (Task, error) {
	rec, ok := s.index[id]
	if !ok {
		return Task{}, ErrNotFound
	}

	prev := rec.task
	next := prev
	mutate(&next)

	next.ID = prev.ID
	next.Payload = prev.Payload
	next.Name = prev.Name
	next.Size = prev.Size
	next.EnqueuedAt = prev.EnqueuedAt
	next.Progress = clampProgress(next.Progress)

	if !changed(prev, next) {
		return prev, nil
	}
	if !next.Status.Valid() || prev.Status.IsTerminal() {
		return prev, ErrInvalidTransition
	}
	if next.Status != prev.Status && !canTransition(prev.Status, next.Status) {
		return prev, ErrInvalidTransition
	}

	next.UpdatedAt = s.now()
	if next.Status == StatusQueued && prev.Status != StatusQueued {
		rec.ticket = s.nextTicket()
	}
	rec.task = next
	return next, nil
}

// Remove deletes one record regardless of its status.
func (s *Store) Remove(id string) (Task, error) {
	rec, ok := s.index[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	delete(s.index, id)
	s.records = slices.DeleteFunc(s.records, func(r *record) bool { return r == rec })
	return rec.task, nil
}

// ClearTerminal deletes every success and error record and returns them.
// The order of the remaining records is preserved.
func (s *Store) ClearTerminal() []Task {
	var removed []Task
	s.records = slices.DeleteFunc(s.records, func(r *record) bool {
		if !r.task.Status.IsTerminal() {
			return false
		}
		removed = append(removed, r.task)
		delete(s.index, r.task.ID)
		return true
	})
	return removed
}

// Count returns the number of records in the given status.
func (s *Store) Count(status Status) int {
	n := 0
	for _, rec := range s.records {
		if rec.task.Status == status {
			n++
		}
	}
	return n
}

// NextQueued returns the queued record that should be admitted next: the one with the lowest
// admission ticket among those whose retry time has passed.
func (s *Store) NextQueued(now time.Time) (Task, bool) {
	var best *record
	for _, rec := range s.records {
		if rec.task.Status != StatusQueued {
			continue
		}
		if !rec.task.RetryAt.IsZero() && rec.task.RetryAt.After(now) {
			continue
		}
		if best == nil || rec.ticket < best.ticket {
			best = rec
		}
	}
	if best == nil {
		return Task{}, false
	}
	return best.task, true
}

func changed(a, b Task) bool {
	return a.Status != b.Status ||
		a.Progress != b.Progress ||
		a.Attempt != b.Attempt ||
		a.LastError != b.LastError ||
		!a.RetryAt.Equal(b.RetryAt)
}
