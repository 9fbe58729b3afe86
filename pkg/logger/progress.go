package logger

// ProgressSampler suppresses repetitive progress logs. It lets a value through
// only when it crosses into a higher bucket than the last one logged.
//
// A sampler belongs to one attempt and is not safe for concurrent use.
type ProgressSampler struct {
	step       int
	lastBucket int
}

// NewProgressSampler returns a sampler emitting once per step percent (default 25).
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 || step > 100 {
		step = 25
	}
	return &ProgressSampler{step: step, lastBucket: -1}
}

// ShouldLog reports whether percent starts a new bucket.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(percent int) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		return false
	}
	bucket := min(percent, 100) / s.step
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// Reset forgets the last bucket, e.g. when an attempt restarts.
func (s *ProgressSampler) Reset() {
	if s != nil {
		s.lastBucket = -1
	}
}
