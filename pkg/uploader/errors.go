package uploader

import "errors"

var (
	// Payload and path validation
	ErrUnsupportedPayload = errors.New("payload cannot be opened for reading")
	ErrInvalidPath        = errors.New("invalid path")
	ErrFileTooLarge       = errors.New("file size exceeds maximum allowed size")

	// I/O operation errors, wrapped with the underlying cause
	ErrFailedToOpenFile        = errors.New("failed to open file")
	ErrFailedToReadFile        = errors.New("failed to read file")
	ErrFailedToWriteFile       = errors.New("failed to write file")
	ErrFailedToCreateFile      = errors.New("failed to create file")
	ErrFailedToDeleteFile      = errors.New("failed to delete file")
	ErrFailedToCreateDirectory = errors.New("failed to create directory")
	ErrFailedToGetAbsolutePath = errors.New("failed to get absolute path")

	// S3 error classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestTimeout     = errors.New("request timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	// Context errors
	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")

	// Simulated backend
	ErrSimulatedFailure = errors.New("upload failed")

	// Configuration errors
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrUnknownBackend     = errors.New("unknown storage backend")
)
