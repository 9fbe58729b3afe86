package uploadqueue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

func TestStoreEnqueue(t *testing.T) {
	t.Parallel()

	s := uploadqueue.NewStore()
	ids := s.Enqueue(payloads("a.txt", "b.txt", "c.txt")...)
	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])

	tasks := s.Snapshot()
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names(tasks))
	for i, task := range tasks {
		assert.Equal(t, ids[i], task.ID)
		assert.Equal(t, uploadqueue.StatusQueued, task.Status)
		assert.Zero(t, task.Progress)
		assert.Zero(t, task.Attempt)
		assert.False(t, task.EnqueuedAt.IsZero())
	}
	assert.Equal(t, int64(5*1024), tasks[0].Size)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Count(uploadqueue.StatusQueued))
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	s := uploadqueue.NewStore()
	s.Enqueue(payloads("a")...)

	snap := s.Snapshot()
	snap[0].Status = uploadqueue.StatusSuccess

	assert.Equal(t, uploadqueue.StatusQueued, s.Snapshot()[0].Status)
}

func TestStoreUpdate(t *testing.T) {
	t.Parallel()

	t.Run("valid transitions", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		id := s.Enqueue(payloads("a")...)[0]

		task, err := s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
		require.NoError(t, err)
		assert.Equal(t, uploadqueue.StatusUploading, task.Status)

		task, err = s.Update(id, func(t *uploadqueue.Task) { t.Progress = 40 })
		require.NoError(t, err)
		assert.Equal(t, 40, task.Progress)

		task, err = s.Update(id, func(t *uploadqueue.Task) {
			t.Status = uploadqueue.StatusSuccess
			t.Progress = 100
		})
		require.NoError(t, err)
		assert.Equal(t, uploadqueue.StatusSuccess, task.Status)
		assert.Equal(t, 100, task.Progress)
	})

	t.Run("clamps progress", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		id := s.Enqueue(payloads("a")...)[0]
		_, err := s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
		require.NoError(t, err)

		task, err := s.Update(id, func(t *uploadqueue.Task) { t.Progress = 250 })
		require.NoError(t, err)
		assert.Equal(t, 100, task.Progress)

		task, err = s.Update(id, func(t *uploadqueue.Task) { t.Progress = -3 })
		require.NoError(t, err)
		assert.Equal(t, 0, task.Progress)
	})

	t.Run("identity fields are immutable", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		id := s.Enqueue(payloads("a")...)[0]

		task, err := s.Update(id, func(t *uploadqueue.Task) {
			t.ID = "other"
			t.Name = "renamed"
			t.Status = uploadqueue.StatusUploading
		})
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, "a", task.Name)
	})

	t.Run("rejects invalid transitions", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		id := s.Enqueue(payloads("a")...)[0]

		_, err := s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusSuccess })
		require.ErrorIs(t, err, uploadqueue.ErrInvalidTransition)

		_, err = s.Update(id, func(t *uploadqueue.Task) { t.Status = "paused" })
		require.ErrorIs(t, err, uploadqueue.ErrInvalidTransition)

		task, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, uploadqueue.StatusQueued, task.Status)
	})

	t.Run("terminal records are frozen", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		id := s.Enqueue(payloads("a")...)[0]
		_, err := s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
		require.NoError(t, err)
		_, err = s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusError; t.Attempt = 3 })
		require.NoError(t, err)

		_, err = s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusQueued })
		require.ErrorIs(t, err, uploadqueue.ErrInvalidTransition)

		_, err = s.Update(id, func(t *uploadqueue.Task) { t.Progress = 10 })
		require.ErrorIs(t, err, uploadqueue.ErrInvalidTransition)

		// A no-op mutation is not an error.
		_, err = s.Update(id, func(*uploadqueue.Task) {})
		require.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		_, err := s.Update("missing", func(*uploadqueue.Task) {})
		require.ErrorIs(t, err, uploadqueue.ErrNotFound)
	})
}

func TestStoreRemove(t *testing.T) {
	t.Parallel()

	s := uploadqueue.NewStore()
	ids := s.Enqueue(payloads("a", "b", "c")...)

	removed, err := s.Remove(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Name)
	assert.Equal(t, []string{"a", "c"}, names(s.Snapshot()))

	_, err = s.Remove(ids[1])
	require.ErrorIs(t, err, uploadqueue.ErrNotFound)
	_, err = s.Get(ids[1])
	require.ErrorIs(t, err, uploadqueue.ErrNotFound)
	assert.Equal(t, 2, s.Len())
}

func TestStoreClearTerminal(t *testing.T) {
	t.Parallel()

	s := uploadqueue.NewStore()
	ids := s.Enqueue(payloads("a", "b", "c", "d")...)

	finish := func(id string, status uploadqueue.Status) {
		_, err := s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
		require.NoError(t, err)
		_, err = s.Update(id, func(t *uploadqueue.Task) { t.Status = status })
		require.NoError(t, err)
	}
	finish(ids[0], uploadqueue.StatusSuccess)
	finish(ids[2], uploadqueue.StatusError)
	_, err := s.Update(ids[3], func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
	require.NoError(t, err)

	removed := s.ClearTerminal()
	assert.Equal(t, []string{"a", "c"}, names(removed))
	assert.Equal(t, []string{"b", "d"}, names(s.Snapshot()))

	assert.Empty(t, s.ClearTerminal())
}

func TestStoreNextQueued(t *testing.T) {
	t.Parallel()

	t.Run("fifo with requeue at the back", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		ids := s.Enqueue(payloads("a", "b", "c")...)
		now := time.Now()

		next, ok := s.NextQueued(now)
		require.True(t, ok)
		assert.Equal(t, "a", next.Name)

		_, err := s.Update(ids[0], func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
		require.NoError(t, err)
		_, err = s.Update(ids[0], func(t *uploadqueue.Task) {
			t.Status = uploadqueue.StatusQueued
			t.Attempt = 1
		})
		require.NoError(t, err)

		next, ok = s.NextQueued(now)
		require.True(t, ok)
		assert.Equal(t, "b", next.Name)

		// Insertion order of the snapshot is unaffected by requeueing.
		assert.Equal(t, []string{"a", "b", "c"}, names(s.Snapshot()))

		for _, id := range ids[1:] {
			_, err = s.Update(id, func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
			require.NoError(t, err)
		}
		next, ok = s.NextQueued(now)
		require.True(t, ok)
		assert.Equal(t, "a", next.Name)
		assert.True(t, next.IsRetry())
	})

	t.Run("skips tasks waiting for retry", func(t *testing.T) {
		t.Parallel()
		s := uploadqueue.NewStore()
		ids := s.Enqueue(payloads("a")...)
		now := time.Now()

		_, err := s.Update(ids[0], func(t *uploadqueue.Task) { t.Status = uploadqueue.StatusUploading })
		require.NoError(t, err)
		_, err = s.Update(ids[0], func(t *uploadqueue.Task) {
			t.Status = uploadqueue.StatusQueued
			t.RetryAt = now.Add(time.Minute)
		})
		require.NoError(t, err)

		_, ok := s.NextQueued(now)
		assert.False(t, ok)

		next, ok := s.NextQueued(now.Add(2 * time.Minute))
		require.True(t, ok)
		assert.Equal(t, "a", next.Name)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, ok := uploadqueue.NewStore().NextQueued(time.Now())
		assert.False(t, ok)
	})
}
