package uploadqueue

import "context"

// ProgressFunc receives the completed percentage of the current attempt.
// Values outside [0,100] are clamped and values lower than the last reported one are ignored.
type ProgressFunc func(percent int)

// Uploader performs one upload attempt.
//
// Upload must return exactly once. It may call onProgress any number of times before returning
// and must not call it afterwards; late calls are discarded. The context is cancelled when the
// task is removed or the scheduler closes, implementations should stop as soon as practical but
// the result of a cancelled attempt is ignored either way.
type Uploader interface {
	Upload(ctx context.Context, payload Payload, onProgress ProgressFunc) error
}

// UploaderFunc adapts an ordinary function to the Uploader interface.
type UploaderFunc func(ctx context.Context, payload Payload, onProgress ProgressFunc) error

// Upload calls f(ctx, payload, onProgress).
func (f UploaderFunc) Upload(ctx context.Context, payload Payload, onProgress ProgressFunc) error {
	return f(ctx, payload, onProgress)
}
