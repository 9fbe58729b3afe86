package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// LocalUploader copies payloads into a directory on the local filesystem.
// All writes are confined to baseDir.
type LocalUploader struct {
	baseDir       string
	uploadTimeout time.Duration
	keyFunc       KeyFunc
}

// LocalOption defines a function that configures LocalUploader.
type LocalOption func(*LocalUploader)

// WithLocalUploadTimeout bounds each attempt. Zero leaves only the caller's deadline.
func WithLocalUploadTimeout(timeout time.Duration) LocalOption {
	return func(u *LocalUploader) {
		u.uploadTimeout = timeout
	}
}

// WithLocalKeyFunc overrides how destination paths are derived from payloads.
func WithLocalKeyFunc(fn KeyFunc) LocalOption {
	return func(u *LocalUploader) {
		if fn != nil {
			u.keyFunc = fn
		}
	}
}

// NewLocalUploader creates the base directory if needed.
func NewLocalUploader(baseDir string, opts ...LocalOption) (*LocalUploader, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve base directory: %v", ErrFailedToGetAbsolutePath, err)
	}
	if err := os.MkdirAll(absBaseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	u := &LocalUploader{baseDir: absBaseDir, keyFunc: DefaultKey}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Upload copies the payload under baseDir in 32KB chunks, checking ctx between
// chunks. The partial file is removed when the attempt fails.
func (u *LocalUploader) Upload(ctx context.Context, p uploadqueue.Payload, onProgress uploadqueue.ProgressFunc) error {
	if u.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.uploadTimeout)
		defer cancel()
	}

	absPath, err := u.resolvePath(u.keyFunc(p))
	if err != nil {
		return err
	}

	src, err := openSource(p)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}
	fail := func(err error) error {
		_ = dst.Close()
		_ = os.Remove(absPath)
		return err
	}

	body := newProgressReader(src, p.Size(), onProgress)
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return fail(fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr))
		}
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(absPath)
		return fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	return nil
}

// Healthcheck verifies the base directory still exists.
func (u *LocalUploader) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(u.baseDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidConfig, u.baseDir)
	}
	return nil
}

// resolvePath keeps every destination inside baseDir.
func (u *LocalUploader) resolvePath(path string) (string, error) {
	path = filepath.Clean(path)
	absPath, err := filepath.Abs(filepath.Join(u.baseDir, path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}

	if !strings.HasPrefix(absPath, u.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return absPath, nil
}
