// Package uploader provides storage backends for the upload queue.
//
// Every backend implements uploadqueue.Uploader and reports progress as the
// payload body is consumed:
//
//   - S3Uploader streams payloads to Amazon S3 or an S3-compatible service
//     with PutObject.
//   - LocalUploader copies payloads into a directory, confined to it.
//   - Simulated reports ten progress steps over a random duration and fails
//     with a configurable probability.
//
// Payloads must implement Source so each attempt can reopen the content.
// FilePayload spools request bodies to disk and removes the spool file on
// Release, which the scheduler calls when the task is removed or cleared.
//
// # Usage
//
//	backend, err := uploader.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	sched, err := uploadqueue.New(backend)
//
//	payload, err := uploader.SpoolMultipart(ctx, cfg.SpoolDir, fh, cfg.MaxFileSize)
//	if err != nil {
//	    return err
//	}
//	ids, err := sched.Enqueue(ctx, payload)
//
// # Errors
//
// S3 errors are classified into package sentinels such as ErrAccessDenied,
// ErrBucketNotFound and ErrServiceUnavailable. I/O errors wrap
// ErrFailedToOpenFile, ErrFailedToWriteFile and friends. All of them are
// treated as a failed attempt by the scheduler.
package uploader
