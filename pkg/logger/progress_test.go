package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/polaris/pkg/logger"
)

func TestProgressSampler(t *testing.T) {
	t.Parallel()

	t.Run("emits once per bucket", func(t *testing.T) {
		t.Parallel()
		s := logger.NewProgressSampler(25)

		var logged []int
		for p := 0; p <= 100; p += 10 {
			if s.ShouldLog(p) {
				logged = append(logged, p)
			}
		}
		assert.Equal(t, []int{0, 30, 50, 80, 100}, logged)
	})

	t.Run("ignores unknown and repeated values", func(t *testing.T) {
		t.Parallel()
		s := logger.NewProgressSampler(50)
		assert.False(t, s.ShouldLog(-1))
		assert.True(t, s.ShouldLog(10))
		assert.False(t, s.ShouldLog(10))
		assert.False(t, s.ShouldLog(49))
		assert.True(t, s.ShouldLog(120))
	})

	t.Run("reset starts over", func(t *testing.T) {
		t.Parallel()
		s := logger.NewProgressSampler(25)
		assert.True(t, s.ShouldLog(60))
		s.Reset()
		assert.True(t, s.ShouldLog(10))
	})

	t.Run("invalid step falls back to default", func(t *testing.T) {
		t.Parallel()
		s := logger.NewProgressSampler(0)
		assert.True(t, s.ShouldLog(0))
		assert.False(t, s.ShouldLog(24))
		assert.True(t, s.ShouldLog(25))
	})

	t.Run("nil sampler logs everything", func(t *testing.T) {
		t.Parallel()
		var s *logger.ProgressSampler
		assert.True(t, s.ShouldLog(1))
		assert.True(t, s.ShouldLog(1))
	})
}
